package mail

import (
	"context"
	"log"
)

// ConsoleSender writes messages to the log instead of delivering them. It is
// the development default.
type ConsoleSender struct {
	logger *log.Logger
}

func NewConsoleSender(logger *log.Logger) *ConsoleSender {
	if logger == nil {
		logger = log.Default()
	}
	return &ConsoleSender{logger: logger}
}

func (s *ConsoleSender) Send(ctx context.Context, msg Message) error {
	s.logger.Printf("mail: to=%s subject=%q\n%s", msg.To, msg.Subject, msg.Body)
	return nil
}
