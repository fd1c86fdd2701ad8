package notifications

import (
	"context"
	"fmt"
	"strings"

	"plantshop/pkg/logger"
)

// Message is a single outbound email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("message %q has no recipient", m.Subject)
	}
	return nil
}

// Sender attempts delivery of a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender only logs. It is used when emails are disabled or SMTP is not configured.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"to": msg.To, "subject": msg.Subject})
	s.logg.Info(ctx, "email delivery disabled, message dropped")
	return nil
}
