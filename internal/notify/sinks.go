package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

type logSink struct {
	log *zap.Logger
}

// NewLogSink returns a sink that writes notifications to the log.
func NewLogSink(log *zap.Logger) port.NotificationSink {
	return &logSink{log: log}
}

func (s *logSink) Name() string { return "log" }

func (s *logSink) Deliver(_ context.Context, n domain.Notification) error {
	s.log.Info("notification",
		zap.Int64("user_id", n.UserID),
		zap.String("kind", string(n.Kind)),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
		zap.String("link", n.Link))
	return nil
}

type emailSink struct {
	users  port.UserRepository
	sender port.EmailSender
}

// NewEmailSink returns a sink that emails the recipient at the address held by the user directory.
func NewEmailSink(users port.UserRepository, sender port.EmailSender) port.NotificationSink {
	return &emailSink{users: users, sender: sender}
}

func (s *emailSink) Name() string { return "email" }

func (s *emailSink) Deliver(ctx context.Context, n domain.Notification) error {
	u, err := s.users.GetByID(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("emailSink: resolving user %d: %w", n.UserID, err)
	}
	if u.Email == "" {
		return nil
	}
	body := n.Message
	if n.Link != "" {
		body += "\n\n" + n.Link
	}
	return s.sender.Send(ctx, u.Email, u.FullName, n.Title, body)
}
