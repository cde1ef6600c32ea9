package port

import (
	"context"

	"github.com/google/uuid"

	"doctrack/internal/domain"
)

// AuditLogRepository is the append-only store of audit entries. There is no update or delete.
type AuditLogRepository interface {
	// Append assigns Seq and CreatedAt. A reused idempotency key yields domain.ErrConflict.
	Append(ctx context.Context, entry *domain.AuditEntry) error
	// ListPage returns up to limit entries strictly after the cursor, ordered by (created_at, seq).
	ListPage(ctx context.Context, documentID uuid.UUID, after *domain.AuditCursor, limit int) ([]domain.AuditEntry, error)
	Count(ctx context.Context, documentID uuid.UUID) (int, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.AuditEntry, error)
}
