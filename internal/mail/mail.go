// Package mail renders HTML templates and delivers them through SMTP,
// SendGrid, or the log in development.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/rs/zerolog"

	"learnhub/api/internal/config"
)

const (
	TemplateActivation        = "activation.html"
	TemplateQuestionReply     = "question-reply.html"
	TemplateOrderConfirmation = "order-confirmation.html"
)

//go:embed templates/*.html
var templateFS embed.FS

type Message struct {
	To       string
	Subject  string
	Template string
	Data     map[string]any
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("mail").Option("missingkey=error").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// New picks the transport named by cfg.Driver.
func New(cfg config.MailConfig, log zerolog.Logger) (Sender, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case "smtp":
		return NewSMTPSender(cfg, renderer), nil
	case "sendgrid":
		return NewSendgridSender(cfg, renderer), nil
	case "log":
		return NewLogSender(log, renderer), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

// LogSender renders the message and writes it to the log instead of delivering it.
type LogSender struct {
	log      zerolog.Logger
	renderer *Renderer
}

func NewLogSender(log zerolog.Logger, renderer *Renderer) *LogSender {
	return &LogSender{log: log, renderer: renderer}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	body, err := s.renderer.Render(msg.Template, msg.Data)
	if err != nil {
		return err
	}
	s.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("template", msg.Template).
		Int("bytes", len(body)).
		Msg("mail not delivered, log driver")
	return nil
}
