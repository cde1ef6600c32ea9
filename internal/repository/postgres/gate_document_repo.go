package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

const gateColumns = `id, kind, human_code, submitter_id, submitter_name, purpose, details,
	attachments, required_signer_ids, status, created_at, updated_at`

type gateDocumentRepo struct {
	db sqlx.ExtContext
}

// NewGateDocumentRepo creates a new PostgreSQL-backed GateDocumentRepository.
func NewGateDocumentRepo(db *sqlx.DB) port.GateDocumentRepository {
	return &gateDocumentRepo{db: db}
}

func (r *gateDocumentRepo) Create(ctx context.Context, doc *domain.GateDocument) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO gate_documents (`+gateColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		doc.ID, doc.Kind, doc.HumanCode, doc.SubmitterID, doc.SubmitterName, doc.Purpose,
		[]byte(doc.Details), doc.Attachments, doc.RequiredSignerIDs, doc.Status,
		doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		if uniqueViolationOn(err, "gate_documents_human_code_key") {
			return domain.ErrDuplicateHumanCode
		}
		return fmt.Errorf("gateDocumentRepo.Create: %w", err)
	}
	return nil
}

func (r *gateDocumentRepo) GetByID(ctx context.Context, id uuid.UUID, lock port.LockMode) (*domain.GateDocument, error) {
	var doc domain.GateDocument
	err := sqlx.GetContext(ctx, r.db, &doc,
		"SELECT "+gateColumns+" FROM gate_documents WHERE id = $1"+lockClause(lock), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("gateDocumentRepo.GetByID: %w", err)
	}
	return &doc, nil
}

func (r *gateDocumentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expect, next domain.GateStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE gate_documents SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		next, time.Now().UTC(), id, expect)
	if err != nil {
		return fmt.Errorf("gateDocumentRepo.UpdateStatus: %w", err)
	}
	return expectOneRow(result, "gateDocumentRepo.UpdateStatus")
}

func (r *gateDocumentRepo) UpdateContent(ctx context.Context, doc *domain.GateDocument, expect domain.GateStatus) error {
	doc.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE gate_documents SET purpose = $1, details = $2, attachments = $3,
			required_signer_ids = $4, updated_at = $5
		 WHERE id = $6 AND status = $7`,
		doc.Purpose, []byte(doc.Details), doc.Attachments, doc.RequiredSignerIDs, doc.UpdatedAt,
		doc.ID, expect)
	if err != nil {
		return fmt.Errorf("gateDocumentRepo.UpdateContent: %w", err)
	}
	return expectOneRow(result, "gateDocumentRepo.UpdateContent")
}

func (r *gateDocumentRepo) ListBySubmitter(ctx context.Context, submitterID int64, kind *domain.DocumentKind, offset, limit int) ([]domain.GateDocument, int, error) {
	where := "submitter_id = ?"
	args := []any{submitterID}
	if kind != nil {
		where += " AND kind = ?"
		args = append(args, *kind)
	}
	return r.list(ctx, "gateDocumentRepo.ListBySubmitter", where, args, offset, limit)
}

func (r *gateDocumentRepo) ListInStages(ctx context.Context, stages []domain.GateStage, offset, limit int) ([]domain.GateDocument, int, error) {
	if len(stages) == 0 {
		return []domain.GateDocument{}, 0, nil
	}
	clauses := make([]string, len(stages))
	args := make([]any, 0, 2*len(stages))
	for i, st := range stages {
		clauses[i] = "(kind = ? AND status = ?)"
		args = append(args, st.Kind, st.Status)
	}
	return r.list(ctx, "gateDocumentRepo.ListInStages", "("+strings.Join(clauses, " OR ")+")", args, offset, limit)
}

func (r *gateDocumentRepo) list(ctx context.Context, op, where string, args []any, offset, limit int) ([]domain.GateDocument, int, error) {
	countQuery, countArgs, err := sqlx.In("SELECT COUNT(*) FROM gate_documents WHERE "+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s bind: %w", op, err)
	}
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, r.db.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("%s count: %w", op, err)
	}

	listQuery, listArgs, err := sqlx.In(
		"SELECT "+gateColumns+" FROM gate_documents WHERE "+where+" ORDER BY created_at DESC LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s bind: %w", op, err)
	}
	var docs []domain.GateDocument
	if err := sqlx.SelectContext(ctx, r.db, &docs, r.db.Rebind(listQuery), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return docs, total, nil
}

func (r *gateDocumentRepo) ListIDsBySubmitter(ctx context.Context, submitterID int64) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := sqlx.SelectContext(ctx, r.db, &ids,
		"SELECT id FROM gate_documents WHERE submitter_id = $1 ORDER BY created_at", submitterID)
	if err != nil {
		return nil, fmt.Errorf("gateDocumentRepo.ListIDsBySubmitter: %w", err)
	}
	return ids, nil
}

func (r *gateDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM gate_documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("gateDocumentRepo.Delete: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("gateDocumentRepo.Delete rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// expectOneRow turns a zero-row compare-and-set update into domain.ErrConflict.
func expectOneRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return domain.ErrConflict
	}
	return nil
}
