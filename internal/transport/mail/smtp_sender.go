package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"strings"

	"gopkg.in/gomail.v2"
)

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string, useTLS bool) (*SMTPSender, error) {
	host = strings.TrimSpace(host)
	from = strings.TrimSpace(from)
	if host == "" || from == "" {
		return nil, errors.New("mail: smtp host and from address are required")
	}
	if port <= 0 {
		port = 587
	}
	dialer := gomail.NewDialer(host, port, username, password)
	if useTLS {
		dialer.TLSConfig = &tls.Config{ServerName: host}
		dialer.SSL = port == 465
	}
	return &SMTPSender{dialer: dialer, from: from}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return s.dialer.DialAndSend(m)
}
