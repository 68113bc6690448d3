package mail

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"learnhub/api/internal/config"
)

type SendgridSender struct {
	client   *sendgrid.Client
	from     *sgmail.Email
	renderer *Renderer
}

func NewSendgridSender(cfg config.MailConfig, renderer *Renderer) *SendgridSender {
	return &SendgridSender{
		client:   sendgrid.NewSendClient(cfg.SendgridAPIKey),
		from:     sgmail.NewEmail(cfg.FromName, cfg.From),
		renderer: renderer,
	}
}

func (s *SendgridSender) Send(ctx context.Context, msg Message) error {
	body, err := s.renderer.Render(msg.Template, msg.Data)
	if err != nil {
		return err
	}

	message := sgmail.NewSingleEmail(s.from, msg.Subject, sgmail.NewEmail("", msg.To), "", body)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
