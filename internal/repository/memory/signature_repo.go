package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

type signatureRepo struct {
	store *Store
	tx    *state
}

// NewSignatureRepo returns a SignatureRepository over st outside any transaction.
func NewSignatureRepo(st *Store) port.SignatureRepository {
	return &signatureRepo{store: st}
}

func (r *signatureRepo) Insert(_ context.Context, sig *domain.Signature) error {
	return r.store.view(r.tx, func(s *state) error {
		existing := s.signatures[sig.DocumentID]
		if slices.ContainsFunc(existing, func(x domain.Signature) bool { return x.SignerID == sig.SignerID }) {
			return domain.ErrDuplicateSignature
		}
		if sig.ID == uuid.Nil {
			sig.ID = uuid.New()
		}
		sig.SignedAt = time.Now().UTC()
		s.signatures[sig.DocumentID] = append(slices.Clip(existing), *sig)
		return nil
	})
}

func (r *signatureRepo) Count(_ context.Context, documentID uuid.UUID) (int, error) {
	var n int
	_ = r.store.view(r.tx, func(s *state) error {
		n = len(s.signatures[documentID])
		return nil
	})
	return n, nil
}

func (r *signatureRepo) Exists(_ context.Context, documentID uuid.UUID, signerID int64) (bool, error) {
	var found bool
	_ = r.store.view(r.tx, func(s *state) error {
		found = slices.ContainsFunc(s.signatures[documentID], func(x domain.Signature) bool { return x.SignerID == signerID })
		return nil
	})
	return found, nil
}

func (r *signatureRepo) ListByDocument(_ context.Context, documentID uuid.UUID) ([]domain.Signature, error) {
	var out []domain.Signature
	_ = r.store.view(r.tx, func(s *state) error {
		out = slices.Clone(s.signatures[documentID])
		return nil
	})
	return out, nil
}
