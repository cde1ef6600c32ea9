package port

import (
	"context"

	"github.com/google/uuid"

	"doctrack/internal/domain"
)

// Notifier accepts notification events from the workflow engine. It never blocks on delivery
// and never reports delivery failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// NotificationSink delivers one notification through one channel.
type NotificationSink interface {
	Name() string
	Deliver(ctx context.Context, n domain.Notification) error
}

// NotificationRepository is the in-app notification inbox.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, offset, limit int) ([]domain.Notification, int, error)
	MarkRead(ctx context.Context, userID int64, id uuid.UUID) error
}
