package port

import "context"

// EmailSender sends a plain-text email.
type EmailSender interface {
	Send(ctx context.Context, toEmail, toName, subject, body string) error
}
