package port

import "context"

// Repositories groups the stores a workflow command mutates together.
type Repositories struct {
	Requests   RequestRepository
	Gates      GateDocumentRepository
	Audit      AuditLogRepository
	Signatures SignatureRepository
}

// TxManager runs fn with repositories bound to a single transaction.
// fn's error rolls the whole unit back; a nil return commits it.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	// Repositories returns repositories outside any transaction, for reads.
	Repositories() Repositories
}
