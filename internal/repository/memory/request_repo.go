package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

type requestRepo struct {
	store *Store
	tx    *state
}

// NewRequestRepo returns a RequestRepository over st outside any transaction.
func NewRequestRepo(st *Store) port.RequestRepository {
	return &requestRepo{store: st}
}

func (r *requestRepo) Create(_ context.Context, req *domain.Request) error {
	return r.store.view(r.tx, func(s *state) error {
		if _, taken := s.requestCodes[req.HumanCode]; taken {
			return domain.ErrDuplicateHumanCode
		}
		now := time.Now().UTC()
		req.CreatedAt = now
		req.UpdatedAt = now
		s.requests[req.ID] = *req
		s.requestCodes[req.HumanCode] = req.ID
		return nil
	})
}

func (r *requestRepo) GetByID(_ context.Context, id uuid.UUID, _ port.LockMode) (*domain.Request, error) {
	var out domain.Request
	err := r.store.view(r.tx, func(s *state) error {
		req, ok := s.requests[id]
		if !ok {
			return domain.ErrDocumentNotFound
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *requestRepo) UpdateState(_ context.Context, id uuid.UUID, expect, next domain.RequestState) error {
	return r.store.view(r.tx, func(s *state) error {
		req, ok := s.requests[id]
		if !ok || req.State() != expect {
			return domain.ErrConflict
		}
		req.Status = next.Status
		req.CurrentDepartmentID = next.DepartmentID
		req.UpdatedAt = time.Now().UTC()
		s.requests[id] = req
		return nil
	})
}

func (r *requestRepo) list(match func(domain.Request) bool, byUpdated bool, offset, limit int) ([]domain.Request, int, error) {
	var all []domain.Request
	_ = r.store.view(r.tx, func(s *state) error {
		for _, req := range s.requests {
			if match(req) {
				all = append(all, req)
			}
		}
		return nil
	})
	slices.SortFunc(all, func(a, b domain.Request) int {
		if byUpdated {
			return b.UpdatedAt.Compare(a.UpdatedAt)
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return page(all, offset, limit), len(all), nil
}

func (r *requestRepo) ListByRequester(_ context.Context, requesterID int64, offset, limit int) ([]domain.Request, int, error) {
	return r.list(func(req domain.Request) bool { return req.RequesterID == requesterID }, false, offset, limit)
}

func (r *requestRepo) ListByDepartment(_ context.Context, departmentID int64, status *domain.RequestStatus, offset, limit int) ([]domain.Request, int, error) {
	return r.list(func(req domain.Request) bool {
		return req.CurrentDepartmentID == departmentID && (status == nil || req.Status == *status)
	}, true, offset, limit)
}

func (r *requestRepo) ListIDsByCreator(_ context.Context, userID int64) ([]uuid.UUID, error) {
	reqs, _, _ := r.list(func(req domain.Request) bool {
		return req.CreatedBy == userID || req.RequesterID == userID
	}, false, 0, 0)
	ids := make([]uuid.UUID, 0, len(reqs))
	for i := len(reqs) - 1; i >= 0; i-- {
		ids = append(ids, reqs[i].ID)
	}
	return ids, nil
}

func (r *requestRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.store.view(r.tx, func(s *state) error {
		if _, ok := s.requests[id]; !ok {
			return domain.ErrDocumentNotFound
		}
		// The human code stays reserved.
		delete(s.requests, id)
		return nil
	})
}
