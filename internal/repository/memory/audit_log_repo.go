package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

type auditLogRepo struct {
	store *Store
	tx    *state
}

// NewAuditLogRepo returns an AuditLogRepository over st outside any transaction.
func NewAuditLogRepo(st *Store) port.AuditLogRepository {
	return &auditLogRepo{store: st}
}

func (r *auditLogRepo) Append(_ context.Context, entry *domain.AuditEntry) error {
	return r.store.view(r.tx, func(s *state) error {
		if entry.IdempotencyKey != nil {
			if _, used := s.idemKeys[*entry.IdempotencyKey]; used {
				return fmt.Errorf("%w: idempotency key already used", domain.ErrConflict)
			}
		}
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		s.seq++
		entry.Seq = s.seq
		entry.CreatedAt = time.Now().UTC()
		if prev := s.audit[entry.DocumentID]; len(prev) > 0 && entry.CreatedAt.Before(prev[len(prev)-1].CreatedAt) {
			entry.CreatedAt = prev[len(prev)-1].CreatedAt
		}

		// Clip so a rolled-back transaction never writes into the committed backing array.
		s.audit[entry.DocumentID] = append(slices.Clip(s.audit[entry.DocumentID]), *entry)
		if entry.IdempotencyKey != nil {
			s.idemKeys[*entry.IdempotencyKey] = *entry
		}
		return nil
	})
}

func (r *auditLogRepo) ListPage(_ context.Context, documentID uuid.UUID, after *domain.AuditCursor, limit int) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	_ = r.store.view(r.tx, func(s *state) error {
		for _, e := range s.audit[documentID] {
			if after != nil && !cursorBefore(*after, e) {
				continue
			}
			out = append(out, e)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, nil
}

// cursorBefore reports whether c sorts strictly before e.
func cursorBefore(c domain.AuditCursor, e domain.AuditEntry) bool {
	if !c.CreatedAt.Equal(e.CreatedAt) {
		return c.CreatedAt.Before(e.CreatedAt)
	}
	return c.Seq < e.Seq
}

func (r *auditLogRepo) Count(_ context.Context, documentID uuid.UUID) (int, error) {
	var n int
	_ = r.store.view(r.tx, func(s *state) error {
		n = len(s.audit[documentID])
		return nil
	})
	return n, nil
}

func (r *auditLogRepo) GetByIdempotencyKey(_ context.Context, key string) (*domain.AuditEntry, error) {
	var out domain.AuditEntry
	err := r.store.view(r.tx, func(s *state) error {
		e, ok := s.idemKeys[key]
		if !ok {
			return domain.ErrNotFound
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
