package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"learnhub/api/internal/config"
)

type SMTPSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	renderer *Renderer
}

func NewSMTPSender(cfg config.MailConfig, renderer *Renderer) *SMTPSender {
	return &SMTPSender{
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:     cfg.From,
		fromName: cfg.FromName,
		renderer: renderer,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	body, err := s.renderer.Render(msg.Template, msg.Data)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
