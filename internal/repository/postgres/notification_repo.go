package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

var (
	_ port.NotificationRepository = (*NotificationRepo)(nil)
	_ port.NotificationSink       = (*NotificationRepo)(nil)
)

// NotificationRepo is the in-app inbox. It also serves as the "inbox" notification sink.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo creates a new PostgreSQL-backed notification inbox.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, title, message, kind, metadata, link, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Title, n.Message, n.Kind, n.Metadata, n.Link, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("notificationRepo.Create: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID int64, unreadOnly bool, offset, limit int) ([]domain.Notification, int, error) {
	where := "user_id = $1"
	if unreadOnly {
		where += " AND read_at IS NULL"
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM notifications WHERE "+where, userID); err != nil {
		return nil, 0, fmt.Errorf("notificationRepo.ListByUser count: %w", err)
	}

	var items []domain.Notification
	err := r.db.SelectContext(ctx, &items,
		`SELECT id, user_id, title, message, kind, metadata, link, read_at, created_at
		 FROM notifications WHERE `+where+`
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("notificationRepo.ListByUser: %w", err)
	}
	return items, total, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, userID int64, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, $1) WHERE id = $2 AND user_id = $3`,
		time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("notificationRepo.MarkRead: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("notificationRepo.MarkRead rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

// Name implements port.NotificationSink.
func (r *NotificationRepo) Name() string { return "inbox" }

// Deliver implements port.NotificationSink by storing the notification in the inbox.
func (r *NotificationRepo) Deliver(ctx context.Context, n domain.Notification) error {
	return r.Create(ctx, &n)
}
