package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendGridSender(apiKey, fromName, fromEmail string) (*SendGridSender, error) {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(fromEmail) == "" {
		return nil, errors.New("mail: sendgrid api key and from address are required")
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, strings.TrimSpace(fromEmail)),
	}, nil
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	message := sgmail.NewSingleEmailPlainText(s.from, msg.Subject, sgmail.NewEmail("", msg.To), msg.Body)
	res, err := s.client.Send(message)
	if err != nil {
		return fmt.Errorf("mail: sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("mail: sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
