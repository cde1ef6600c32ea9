package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Department is an external reference entity used for routing target validation.
type Department struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Code string `db:"code" json:"code"`
}

// User is an external reference entity used for display names and notification addresses.
type User struct {
	ID           int64     `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        string    `db:"email" json:"email"`
	Role         UserRole  `db:"role" json:"role"`
	DepartmentID int64     `db:"department_id" json:"department_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Actor is the authenticated identity issuing a command. It is never persisted.
type Actor struct {
	UserID       int64    `json:"user_id"`
	Role         UserRole `json:"role"`
	DepartmentID int64    `json:"department_id"`
}

// Request is the canonical routed document.
type Request struct {
	ID                  uuid.UUID     `db:"id" json:"id"`
	HumanCode           string        `db:"human_code" json:"human_code"`
	RequesterID         int64         `db:"requester_id" json:"requester_id"`
	RequesterName       string        `db:"requester_name" json:"requester_name"`
	Purpose             string        `db:"purpose" json:"purpose"`
	CurrentDepartmentID int64         `db:"current_department_id" json:"current_department_id"`
	Status              RequestStatus `db:"status" json:"status"`
	Attachments         StringList    `db:"attachments" json:"attachments"`
	CreatedBy           int64         `db:"created_by" json:"created_by"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`

	// SignerIDs is derived from the signature ledger on read.
	SignerIDs []int64 `db:"-" json:"signer_ids"`
}

// State returns the compare-and-set snapshot of the request.
func (r *Request) State() RequestState {
	return RequestState{Status: r.Status, DepartmentID: r.CurrentDepartmentID}
}

// RequestState is the mutable workflow state of a request: status plus custody.
type RequestState struct {
	Status       RequestStatus `json:"status"`
	DepartmentID int64         `json:"current_department_id"`
}

// GateDocument is a clearance, pass slip, travel order or accomplishment report.
type GateDocument struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	Kind              DocumentKind    `db:"kind" json:"kind"`
	HumanCode         string          `db:"human_code" json:"human_code"`
	SubmitterID       int64           `db:"submitter_id" json:"submitter_id"`
	SubmitterName     string          `db:"submitter_name" json:"submitter_name"`
	Purpose           string          `db:"purpose" json:"purpose"`
	Details           json.RawMessage `db:"details" json:"details"`
	Attachments       StringList      `db:"attachments" json:"attachments"`
	RequiredSignerIDs Int64List       `db:"required_signer_ids" json:"required_signer_ids"`
	Status            GateStatus      `db:"status" json:"status"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`

	SignerIDs []int64 `db:"-" json:"signer_ids"`
}

// AuditEntry is one immutable record of the append-only audit log.
type AuditEntry struct {
	ID               uuid.UUID    `db:"id" json:"id"`
	Seq              int64        `db:"seq" json:"seq"`
	DocumentID       uuid.UUID    `db:"document_id" json:"document_id"`
	DocumentKind     DocumentKind `db:"document_kind" json:"document_kind"`
	Action           AuditAction  `db:"action" json:"action"`
	FromDepartmentID *int64       `db:"from_department_id" json:"from_department_id"`
	ToDepartmentID   *int64       `db:"to_department_id" json:"to_department_id"`
	ActedBy          *int64       `db:"acted_by" json:"acted_by"`
	Remarks          string       `db:"remarks" json:"remarks"`
	IdempotencyKey   *string      `db:"idempotency_key" json:"-"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
}

// AuditCursor is the keyset position of an audit entry within a timeline.
type AuditCursor struct {
	CreatedAt time.Time
	Seq       int64
}

// Cursor returns the keyset position of the entry.
func (e *AuditEntry) Cursor() AuditCursor {
	return AuditCursor{CreatedAt: e.CreatedAt, Seq: e.Seq}
}

// Before reports whether e sorts before other in timeline order.
func (e *AuditEntry) Before(other *AuditEntry) bool {
	if !e.CreatedAt.Equal(other.CreatedAt) {
		return e.CreatedAt.Before(other.CreatedAt)
	}
	return e.Seq < other.Seq
}

// TimelineEntry is an audit entry with references resolved for display.
type TimelineEntry struct {
	AuditEntry
	DocumentCode       string `json:"document_code"`
	ActedByName        string `json:"acted_by_name"`
	FromDepartmentName string `json:"from_department_name"`
	ToDepartmentName   string `json:"to_department_name"`
}

// Signature records one signer's sign-off on a document.
type Signature struct {
	ID         uuid.UUID `db:"id" json:"id"`
	DocumentID uuid.UUID `db:"document_id" json:"document_id"`
	SignerID   int64     `db:"signer_id" json:"signer_id"`
	SignedAt   time.Time `db:"signed_at" json:"signed_at"`
}

// Notification is an event addressed to one user.
type Notification struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	UserID    int64            `db:"user_id" json:"user_id"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Kind      NotificationKind `db:"kind" json:"kind"`
	Metadata  StringMap        `db:"metadata" json:"metadata"`
	Link      string           `db:"link" json:"link"`
	ReadAt    *time.Time       `db:"read_at" json:"read_at"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// Stats holds dashboard counts by status.
type Stats struct {
	Total     int `db:"total" json:"total"`
	ToReceive int `db:"to_receive" json:"to_receive"`
	Ongoing   int `db:"ongoing" json:"ongoing"`
	ToRelease int `db:"to_release" json:"to_release"`
	Completed int `db:"completed" json:"completed"`
	Declined  int `db:"declined" json:"declined"`
}
