package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

// NotificationRepo is the in-process notification inbox and "inbox" sink.
type NotificationRepo struct {
	store *Store
}

var (
	_ port.NotificationRepository = (*NotificationRepo)(nil)
	_ port.NotificationSink       = (*NotificationRepo)(nil)
)

// NewNotificationRepo returns an inbox backed by st.
func NewNotificationRepo(st *Store) *NotificationRepo {
	return &NotificationRepo{store: st}
}

func (r *NotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	r.store.dirMu.Lock()
	defer r.store.dirMu.Unlock()
	r.store.notifications = append(r.store.notifications, *n)
	return nil
}

func (r *NotificationRepo) ListByUser(_ context.Context, userID int64, unreadOnly bool, offset, limit int) ([]domain.Notification, int, error) {
	r.store.dirMu.RLock()
	defer r.store.dirMu.RUnlock()
	var all []domain.Notification
	for i := len(r.store.notifications) - 1; i >= 0; i-- {
		n := r.store.notifications[i]
		if n.UserID != userID || (unreadOnly && n.ReadAt != nil) {
			continue
		}
		all = append(all, n)
	}
	return page(all, offset, limit), len(all), nil
}

func (r *NotificationRepo) MarkRead(_ context.Context, userID int64, id uuid.UUID) error {
	r.store.dirMu.Lock()
	defer r.store.dirMu.Unlock()
	for i := range r.store.notifications {
		n := &r.store.notifications[i]
		if n.ID != id || n.UserID != userID {
			continue
		}
		if n.ReadAt == nil {
			now := time.Now().UTC()
			n.ReadAt = &now
		}
		return nil
	}
	return domain.ErrNotificationNotFound
}

// Name implements port.NotificationSink.
func (r *NotificationRepo) Name() string { return "inbox" }

// Deliver implements port.NotificationSink.
func (r *NotificationRepo) Deliver(ctx context.Context, n domain.Notification) error {
	return r.Create(ctx, &n)
}
