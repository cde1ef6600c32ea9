package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

const auditColumns = `id, seq, document_id, document_kind, action, from_department_id,
	to_department_id, acted_by, remarks, idempotency_key, created_at`

type auditLogRepo struct {
	db sqlx.ExtContext
}

// NewAuditLogRepo creates a new PostgreSQL-backed AuditLogRepository.
func NewAuditLogRepo(db *sqlx.DB) port.AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) Append(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	// created_at comes from the database clock and never precedes the document's last entry.
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO audit_log (id, document_id, document_kind, action, from_department_id,
			to_department_id, acted_by, remarks, idempotency_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, GREATEST(clock_timestamp(),
			COALESCE((SELECT max(created_at) FROM audit_log WHERE document_id = $2), '-infinity')))
		 RETURNING seq, created_at`,
		entry.ID, entry.DocumentID, entry.DocumentKind, entry.Action, entry.FromDepartmentID,
		entry.ToDepartmentID, entry.ActedBy, entry.Remarks, entry.IdempotencyKey).
		Scan(&entry.Seq, &entry.CreatedAt)
	if err != nil {
		if uniqueViolationOn(err, "audit_log_idempotency_key_key") {
			return fmt.Errorf("%w: idempotency key already used", domain.ErrConflict)
		}
		return fmt.Errorf("auditLogRepo.Append: %w", err)
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	return nil
}

func (r *auditLogRepo) ListPage(ctx context.Context, documentID uuid.UUID, after *domain.AuditCursor, limit int) ([]domain.AuditEntry, error) {
	var (
		entries []domain.AuditEntry
		err     error
	)
	if after == nil {
		err = sqlx.SelectContext(ctx, r.db, &entries,
			`SELECT `+auditColumns+` FROM audit_log WHERE document_id = $1
			 ORDER BY created_at, seq LIMIT $2`,
			documentID, limit)
	} else {
		err = sqlx.SelectContext(ctx, r.db, &entries,
			`SELECT `+auditColumns+` FROM audit_log
			 WHERE document_id = $1 AND (created_at, seq) > ($2, $3)
			 ORDER BY created_at, seq LIMIT $4`,
			documentID, after.CreatedAt, after.Seq, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("auditLogRepo.ListPage: %w", err)
	}
	return entries, nil
}

func (r *auditLogRepo) Count(ctx context.Context, documentID uuid.UUID) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n,
		"SELECT COUNT(*) FROM audit_log WHERE document_id = $1", documentID); err != nil {
		return 0, fmt.Errorf("auditLogRepo.Count: %w", err)
	}
	return n, nil
}

func (r *auditLogRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.AuditEntry, error) {
	var entry domain.AuditEntry
	err := sqlx.GetContext(ctx, r.db, &entry,
		"SELECT "+auditColumns+" FROM audit_log WHERE idempotency_key = $1", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("auditLogRepo.GetByIdempotencyKey: %w", err)
	}
	return &entry, nil
}
