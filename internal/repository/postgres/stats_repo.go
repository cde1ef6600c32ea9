package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

type statsRepo struct {
	db *sqlx.DB
}

// NewStatsRepo creates a new PostgreSQL-backed StatsRepository.
func NewStatsRepo(db *sqlx.DB) port.StatsRepository {
	return &statsRepo{db: db}
}

const requestStatsSelect = `SELECT
	COUNT(*) AS total,
	COUNT(CASE WHEN status = 'TO_RECEIVE' THEN 1 END) AS to_receive,
	COUNT(CASE WHEN status = 'ONGOING' THEN 1 END) AS ongoing,
	COUNT(CASE WHEN status = 'TO_RELEASE' THEN 1 END) AS to_release,
	COUNT(CASE WHEN status = 'COMPLETED' THEN 1 END) AS completed,
	COUNT(CASE WHEN status = 'DECLINED' THEN 1 END) AS declined
FROM requests `

func (r *statsRepo) GetDepartmentStats(ctx context.Context, departmentID int64) (*domain.Stats, error) {
	var stats domain.Stats
	if err := r.db.GetContext(ctx, &stats, requestStatsSelect+"WHERE current_department_id = $1", departmentID); err != nil {
		return nil, fmt.Errorf("statsRepo.GetDepartmentStats: %w", err)
	}
	return &stats, nil
}

func (r *statsRepo) GetRequesterStats(ctx context.Context, requesterID int64) (*domain.Stats, error) {
	var stats domain.Stats
	if err := r.db.GetContext(ctx, &stats, requestStatsSelect+"WHERE requester_id = $1", requesterID); err != nil {
		return nil, fmt.Errorf("statsRepo.GetRequesterStats: %w", err)
	}
	return &stats, nil
}
