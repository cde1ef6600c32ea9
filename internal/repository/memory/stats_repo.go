package memory

import (
	"context"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

type statsRepo struct {
	store *Store
}

// NewStatsRepo returns a StatsRepository computed from st.
func NewStatsRepo(st *Store) port.StatsRepository {
	return &statsRepo{store: st}
}

func (r *statsRepo) count(match func(domain.Request) bool) *domain.Stats {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var stats domain.Stats
	for _, req := range r.store.data.requests {
		if !match(req) {
			continue
		}
		stats.Total++
		switch req.Status {
		case domain.RequestStatusToReceive:
			stats.ToReceive++
		case domain.RequestStatusOngoing:
			stats.Ongoing++
		case domain.RequestStatusToRelease:
			stats.ToRelease++
		case domain.RequestStatusCompleted:
			stats.Completed++
		case domain.RequestStatusDeclined:
			stats.Declined++
		}
	}
	return &stats
}

func (r *statsRepo) GetDepartmentStats(_ context.Context, departmentID int64) (*domain.Stats, error) {
	return r.count(func(req domain.Request) bool { return req.CurrentDepartmentID == departmentID }), nil
}

func (r *statsRepo) GetRequesterStats(_ context.Context, requesterID int64) (*domain.Stats, error) {
	return r.count(func(req domain.Request) bool { return req.RequesterID == requesterID }), nil
}
