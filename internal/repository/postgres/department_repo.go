package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

type departmentRepo struct {
	db *sqlx.DB
}

// NewDepartmentRepo creates a new PostgreSQL-backed DepartmentRepository.
func NewDepartmentRepo(db *sqlx.DB) port.DepartmentRepository {
	return &departmentRepo{db: db}
}

func (r *departmentRepo) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	var dept domain.Department
	err := r.db.GetContext(ctx, &dept, "SELECT id, name, code FROM departments WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("departmentRepo.GetByID: %w", err)
	}
	return &dept, nil
}

func (r *departmentRepo) List(ctx context.Context) ([]domain.Department, error) {
	var depts []domain.Department
	if err := r.db.SelectContext(ctx, &depts, "SELECT id, name, code FROM departments ORDER BY name"); err != nil {
		return nil, fmt.Errorf("departmentRepo.List: %w", err)
	}
	return depts, nil
}

func (r *departmentRepo) Upsert(ctx context.Context, dept *domain.Department) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO departments (id, name, code) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, code = EXCLUDED.code`,
		dept.ID, dept.Name, dept.Code)
	if err != nil {
		return fmt.Errorf("departmentRepo.Upsert: %w", err)
	}
	return nil
}
