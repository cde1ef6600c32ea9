package port

import (
	"context"

	"github.com/google/uuid"

	"doctrack/internal/domain"
)

// SignatureRepository is the per-document signature ledger.
type SignatureRepository interface {
	// Insert is atomic on (document_id, signer_id); a second insert yields domain.ErrDuplicateSignature.
	Insert(ctx context.Context, sig *domain.Signature) error
	Count(ctx context.Context, documentID uuid.UUID) (int, error)
	Exists(ctx context.Context, documentID uuid.UUID, signerID int64) (bool, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.Signature, error)
}
