package mail

import (
	"context"
	"fmt"
	"strings"
)

// Message is a plain-text email to a single recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

const (
	ProviderSMTP     = "smtp"
	ProviderSendGrid = "sendgrid"
	ProviderConsole  = "console"
)

type Config struct {
	Provider string
	AppName  string
	From     string
	FromName string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPUseTLS   bool

	SendGridAPIKey string
}

// NewSender picks the delivery backend named by cfg.Provider. An empty
// provider falls back to SMTP when a host is configured and the console
// otherwise.
func NewSender(cfg Config) (Sender, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderConsole
		if strings.TrimSpace(cfg.SMTPHost) != "" {
			provider = ProviderSMTP
		}
	}

	switch provider {
	case ProviderSMTP:
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.From, cfg.SMTPUseTLS)
	case ProviderSendGrid:
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.FromName, cfg.From)
	case ProviderConsole:
		return NewConsoleSender(nil), nil
	}
	return nil, fmt.Errorf("mail: unknown provider %q", cfg.Provider)
}
