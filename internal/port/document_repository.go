package port

import (
	"context"

	"github.com/google/uuid"

	"doctrack/internal/domain"
)

// LockMode selects the row lock taken when a document is read inside a transaction.
type LockMode int

const (
	LockNone LockMode = iota
	// LockShare blocks concurrent state changes but not other shared readers (signing).
	LockShare
	// LockUpdate serializes state-changing commands on the same document.
	LockUpdate
)

// RequestRepository persists canonical requests.
type RequestRepository interface {
	// Create returns domain.ErrDuplicateHumanCode when the human code is taken.
	Create(ctx context.Context, req *domain.Request) error
	GetByID(ctx context.Context, id uuid.UUID, lock LockMode) (*domain.Request, error)
	// UpdateState applies next only if the stored state still equals expect; otherwise domain.ErrConflict.
	UpdateState(ctx context.Context, id uuid.UUID, expect, next domain.RequestState) error
	ListByRequester(ctx context.Context, requesterID int64, offset, limit int) ([]domain.Request, int, error)
	ListByDepartment(ctx context.Context, departmentID int64, status *domain.RequestStatus, offset, limit int) ([]domain.Request, int, error)
	ListIDsByCreator(ctx context.Context, userID int64) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// GateDocumentRepository persists clearances, pass slips, travel orders and accomplishment reports.
type GateDocumentRepository interface {
	Create(ctx context.Context, doc *domain.GateDocument) error
	GetByID(ctx context.Context, id uuid.UUID, lock LockMode) (*domain.GateDocument, error)
	// UpdateStatus is a compare-and-set on status; a mismatch yields domain.ErrConflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, expect, next domain.GateStatus) error
	// UpdateContent replaces purpose, details and attachments while the status still equals expect.
	UpdateContent(ctx context.Context, doc *domain.GateDocument, expect domain.GateStatus) error
	ListBySubmitter(ctx context.Context, submitterID int64, kind *domain.DocumentKind, offset, limit int) ([]domain.GateDocument, int, error)
	// ListInStages returns documents whose (kind, status) matches any of stages.
	ListInStages(ctx context.Context, stages []domain.GateStage, offset, limit int) ([]domain.GateDocument, int, error)
	ListIDsBySubmitter(ctx context.Context, submitterID int64) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
