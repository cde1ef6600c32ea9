package noop

import (
	"context"

	"go.uber.org/zap"

	"doctrack/internal/port"
)

type noopSender struct {
	log *zap.Logger
}

// NewNoopSender creates a no-op EmailSender that only logs what would have been sent.
func NewNoopSender(log *zap.Logger) port.EmailSender {
	return &noopSender{log: log}
}

func (s *noopSender) Send(_ context.Context, toEmail, toName, subject, body string) error {
	s.log.Info("noop email",
		zap.String("to", toEmail),
		zap.String("name", toName),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)))
	return nil
}
