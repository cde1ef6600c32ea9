package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

type gateDocumentRepo struct {
	store *Store
	tx    *state
}

// NewGateDocumentRepo returns a GateDocumentRepository over st outside any transaction.
func NewGateDocumentRepo(st *Store) port.GateDocumentRepository {
	return &gateDocumentRepo{store: st}
}

func (r *gateDocumentRepo) Create(_ context.Context, doc *domain.GateDocument) error {
	return r.store.view(r.tx, func(s *state) error {
		if _, taken := s.gateCodes[doc.HumanCode]; taken {
			return domain.ErrDuplicateHumanCode
		}
		now := time.Now().UTC()
		doc.CreatedAt = now
		doc.UpdatedAt = now
		s.gates[doc.ID] = *doc
		s.gateCodes[doc.HumanCode] = doc.ID
		return nil
	})
}

func (r *gateDocumentRepo) GetByID(_ context.Context, id uuid.UUID, _ port.LockMode) (*domain.GateDocument, error) {
	var out domain.GateDocument
	err := r.store.view(r.tx, func(s *state) error {
		doc, ok := s.gates[id]
		if !ok {
			return domain.ErrDocumentNotFound
		}
		out = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *gateDocumentRepo) UpdateStatus(_ context.Context, id uuid.UUID, expect, next domain.GateStatus) error {
	return r.store.view(r.tx, func(s *state) error {
		doc, ok := s.gates[id]
		if !ok || doc.Status != expect {
			return domain.ErrConflict
		}
		doc.Status = next
		doc.UpdatedAt = time.Now().UTC()
		s.gates[id] = doc
		return nil
	})
}

func (r *gateDocumentRepo) UpdateContent(_ context.Context, doc *domain.GateDocument, expect domain.GateStatus) error {
	return r.store.view(r.tx, func(s *state) error {
		stored, ok := s.gates[doc.ID]
		if !ok || stored.Status != expect {
			return domain.ErrConflict
		}
		doc.UpdatedAt = time.Now().UTC()
		stored.Purpose = doc.Purpose
		stored.Details = doc.Details
		stored.Attachments = doc.Attachments
		stored.RequiredSignerIDs = doc.RequiredSignerIDs
		stored.UpdatedAt = doc.UpdatedAt
		s.gates[doc.ID] = stored
		return nil
	})
}

func (r *gateDocumentRepo) list(match func(domain.GateDocument) bool) []domain.GateDocument {
	var all []domain.GateDocument
	_ = r.store.view(r.tx, func(s *state) error {
		for _, doc := range s.gates {
			if match(doc) {
				all = append(all, doc)
			}
		}
		return nil
	})
	slices.SortFunc(all, func(a, b domain.GateDocument) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return all
}

func (r *gateDocumentRepo) ListBySubmitter(_ context.Context, submitterID int64, kind *domain.DocumentKind, offset, limit int) ([]domain.GateDocument, int, error) {
	all := r.list(func(d domain.GateDocument) bool {
		return d.SubmitterID == submitterID && (kind == nil || d.Kind == *kind)
	})
	return page(all, offset, limit), len(all), nil
}

func (r *gateDocumentRepo) ListInStages(_ context.Context, stages []domain.GateStage, offset, limit int) ([]domain.GateDocument, int, error) {
	all := r.list(func(d domain.GateDocument) bool {
		return slices.Contains(stages, domain.GateStage{Kind: d.Kind, Status: d.Status})
	})
	return page(all, offset, limit), len(all), nil
}

func (r *gateDocumentRepo) ListIDsBySubmitter(_ context.Context, submitterID int64) ([]uuid.UUID, error) {
	all := r.list(func(d domain.GateDocument) bool { return d.SubmitterID == submitterID })
	ids := make([]uuid.UUID, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		ids = append(ids, all[i].ID)
	}
	return ids, nil
}

func (r *gateDocumentRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.store.view(r.tx, func(s *state) error {
		if _, ok := s.gates[id]; !ok {
			return domain.ErrDocumentNotFound
		}
		delete(s.gates, id)
		return nil
	})
}
