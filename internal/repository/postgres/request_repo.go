package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

const requestColumns = `id, human_code, requester_id, requester_name, purpose,
	current_department_id, status, attachments, created_by, created_at, updated_at`

type requestRepo struct {
	db sqlx.ExtContext
}

// NewRequestRepo creates a new PostgreSQL-backed RequestRepository.
func NewRequestRepo(db *sqlx.DB) port.RequestRepository {
	return &requestRepo{db: db}
}

func (r *requestRepo) Create(ctx context.Context, req *domain.Request) error {
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO requests (`+requestColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID, req.HumanCode, req.RequesterID, req.RequesterName, req.Purpose,
		req.CurrentDepartmentID, req.Status, req.Attachments, req.CreatedBy,
		req.CreatedAt, req.UpdatedAt)
	if err != nil {
		if uniqueViolationOn(err, "requests_human_code_key") {
			return domain.ErrDuplicateHumanCode
		}
		return fmt.Errorf("requestRepo.Create: %w", err)
	}
	return nil
}

func (r *requestRepo) GetByID(ctx context.Context, id uuid.UUID, lock port.LockMode) (*domain.Request, error) {
	var req domain.Request
	err := sqlx.GetContext(ctx, r.db, &req,
		"SELECT "+requestColumns+" FROM requests WHERE id = $1"+lockClause(lock), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("requestRepo.GetByID: %w", err)
	}
	return &req, nil
}

func (r *requestRepo) UpdateState(ctx context.Context, id uuid.UUID, expect, next domain.RequestState) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE requests SET status = $1, current_department_id = $2, updated_at = $3
		 WHERE id = $4 AND status = $5 AND current_department_id = $6`,
		next.Status, next.DepartmentID, time.Now().UTC(),
		id, expect.Status, expect.DepartmentID)
	if err != nil {
		return fmt.Errorf("requestRepo.UpdateState: %w", err)
	}
	return expectOneRow(result, "requestRepo.UpdateState")
}

func (r *requestRepo) ListByRequester(ctx context.Context, requesterID int64, offset, limit int) ([]domain.Request, int, error) {
	var total int
	err := sqlx.GetContext(ctx, r.db, &total,
		"SELECT COUNT(*) FROM requests WHERE requester_id = $1", requesterID)
	if err != nil {
		return nil, 0, fmt.Errorf("requestRepo.ListByRequester count: %w", err)
	}

	var reqs []domain.Request
	err = sqlx.SelectContext(ctx, r.db, &reqs,
		`SELECT `+requestColumns+` FROM requests WHERE requester_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		requesterID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("requestRepo.ListByRequester: %w", err)
	}
	return reqs, total, nil
}

func (r *requestRepo) ListByDepartment(ctx context.Context, departmentID int64, status *domain.RequestStatus, offset, limit int) ([]domain.Request, int, error) {
	where := "current_department_id = $1"
	args := []any{departmentID}
	if status != nil {
		where += " AND status = $2"
		args = append(args, *status)
	}

	var total int
	err := sqlx.GetContext(ctx, r.db, &total, "SELECT COUNT(*) FROM requests WHERE "+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("requestRepo.ListByDepartment count: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM requests WHERE %s
		ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`,
		requestColumns, where, len(args)+1, len(args)+2)
	var reqs []domain.Request
	err = sqlx.SelectContext(ctx, r.db, &reqs, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("requestRepo.ListByDepartment: %w", err)
	}
	return reqs, total, nil
}

func (r *requestRepo) ListIDsByCreator(ctx context.Context, userID int64) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := sqlx.SelectContext(ctx, r.db, &ids,
		"SELECT id FROM requests WHERE created_by = $1 OR requester_id = $1 ORDER BY created_at", userID)
	if err != nil {
		return nil, fmt.Errorf("requestRepo.ListIDsByCreator: %w", err)
	}
	return ids, nil
}

func (r *requestRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM requests WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("requestRepo.Delete: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("requestRepo.Delete rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
