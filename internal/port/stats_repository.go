package port

import (
	"context"

	"doctrack/internal/domain"
)

// StatsRepository provides aggregate request counts by status.
type StatsRepository interface {
	GetDepartmentStats(ctx context.Context, departmentID int64) (*domain.Stats, error)
	GetRequesterStats(ctx context.Context, requesterID int64) (*domain.Stats, error)
}
