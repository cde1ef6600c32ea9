package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

type signatureRepo struct {
	db sqlx.ExtContext
}

// NewSignatureRepo creates a new PostgreSQL-backed SignatureRepository.
func NewSignatureRepo(db *sqlx.DB) port.SignatureRepository {
	return &signatureRepo{db: db}
}

func (r *signatureRepo) Insert(ctx context.Context, sig *domain.Signature) error {
	if sig.ID == uuid.Nil {
		sig.ID = uuid.New()
	}
	sig.SignedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO signatures (id, document_id, signer_id, signed_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (document_id, signer_id) DO NOTHING`,
		sig.ID, sig.DocumentID, sig.SignerID, sig.SignedAt)
	if err != nil {
		return fmt.Errorf("signatureRepo.Insert: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("signatureRepo.Insert rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrDuplicateSignature
	}
	return nil
}

func (r *signatureRepo) Count(ctx context.Context, documentID uuid.UUID) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n,
		"SELECT COUNT(*) FROM signatures WHERE document_id = $1", documentID); err != nil {
		return 0, fmt.Errorf("signatureRepo.Count: %w", err)
	}
	return n, nil
}

func (r *signatureRepo) Exists(ctx context.Context, documentID uuid.UUID, signerID int64) (bool, error) {
	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists,
		"SELECT EXISTS(SELECT 1 FROM signatures WHERE document_id = $1 AND signer_id = $2)",
		documentID, signerID); err != nil {
		return false, fmt.Errorf("signatureRepo.Exists: %w", err)
	}
	return exists, nil
}

func (r *signatureRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.Signature, error) {
	var sigs []domain.Signature
	if err := sqlx.SelectContext(ctx, r.db, &sigs,
		`SELECT id, document_id, signer_id, signed_at FROM signatures
		 WHERE document_id = $1 ORDER BY signed_at`, documentID); err != nil {
		return nil, fmt.Errorf("signatureRepo.ListByDocument: %w", err)
	}
	return sigs, nil
}
