package service

import (
	"context"

	"github.com/google/uuid"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

// SignatureLedger is the per-document set of sign-offs, at most one per signer.
type SignatureLedger struct {
	tx port.TxManager
}

// NewSignatureLedger creates a SignatureLedger.
func NewSignatureLedger(tx port.TxManager) *SignatureLedger {
	return &SignatureLedger{tx: tx}
}

// sign inserts the signature within the caller's transaction. The store enforces
// uniqueness, so two racing signs by the same signer cannot both pass.
func (l *SignatureLedger) sign(ctx context.Context, repos port.Repositories, documentID uuid.UUID, signerID int64) (*domain.Signature, error) {
	sig := &domain.Signature{ID: uuid.New(), DocumentID: documentID, SignerID: signerID}
	if err := repos.Signatures.Insert(ctx, sig); err != nil {
		return nil, storeErr("signatureLedger.sign", err)
	}
	return sig, nil
}

// allSigned reports whether every id in required has a signature on the document.
func (l *SignatureLedger) allSigned(ctx context.Context, repos port.Repositories, documentID uuid.UUID, required []int64) (bool, error) {
	if len(required) == 0 {
		return false, nil
	}
	sigs, err := repos.Signatures.ListByDocument(ctx, documentID)
	if err != nil {
		return false, storeErr("signatureLedger.allSigned", err)
	}
	signed := make(map[int64]bool, len(sigs))
	for _, s := range sigs {
		signed[s.SignerID] = true
	}
	for _, id := range required {
		if !signed[id] {
			return false, nil
		}
	}
	return true, nil
}

// SignatureCount returns the number of signatures on the document.
func (l *SignatureLedger) SignatureCount(ctx context.Context, documentID uuid.UUID) (int, error) {
	n, err := l.tx.Repositories().Signatures.Count(ctx, documentID)
	return n, storeErr("signatureLedger.SignatureCount", err)
}

// HasSigned reports whether signerID has signed the document.
func (l *SignatureLedger) HasSigned(ctx context.Context, documentID uuid.UUID, signerID int64) (bool, error) {
	ok, err := l.tx.Repositories().Signatures.Exists(ctx, documentID, signerID)
	return ok, storeErr("signatureLedger.HasSigned", err)
}

// Signers returns signer ids in signing order.
func (l *SignatureLedger) Signers(ctx context.Context, documentID uuid.UUID) ([]int64, error) {
	sigs, err := l.tx.Repositories().Signatures.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, storeErr("signatureLedger.Signers", err)
	}
	ids := make([]int64, len(sigs))
	for i, s := range sigs {
		ids[i] = s.SignerID
	}
	return ids, nil
}
