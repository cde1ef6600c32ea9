package service

import (
	"context"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

// StatsService provides dashboard counts of requests by status.
type StatsService interface {
	GetStats(ctx context.Context, actor domain.Actor) (*domain.Stats, error)
}

type statsService struct {
	statsRepo port.StatsRepository
}

// NewStatsService creates a new StatsService implementation.
func NewStatsService(statsRepo port.StatsRepository) StatsService {
	return &statsService{statsRepo: statsRepo}
}

// GetStats counts requests held by the actor's department for roles that act on custody,
// and the actor's own requests otherwise.
func (s *statsService) GetStats(ctx context.Context, actor domain.Actor) (*domain.Stats, error) {
	var (
		stats *domain.Stats
		err   error
	)
	switch actor.Role {
	case domain.RoleHead, domain.RoleMISD, domain.RoleDean, domain.RolePresident:
		stats, err = s.statsRepo.GetDepartmentStats(ctx, actor.DepartmentID)
	default:
		stats, err = s.statsRepo.GetRequesterStats(ctx, actor.UserID)
	}
	if err != nil {
		return nil, storeErr("statsService.GetStats", err)
	}
	return stats, nil
}
