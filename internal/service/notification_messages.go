package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"doctrack/internal/domain"
)

// messageBuilder renders workflow events into notifications.
type messageBuilder struct {
	linkBase string
}

func (b messageBuilder) link(kind domain.DocumentKind, id uuid.UUID) string {
	path := "requests"
	if kind != domain.KindRequest {
		path = "documents/" + strings.ToLower(strings.ReplaceAll(string(kind), "_", "-"))
	}
	return fmt.Sprintf("%s/%s/%s", b.linkBase, path, id)
}

func metadata(id uuid.UUID, code string, at time.Time) domain.StringMap {
	return domain.StringMap{
		"document_id": id.String(),
		"human_code":  code,
		"timestamp":   at.UTC().Format(time.RFC3339),
	}
}

var requestActionVerbs = map[domain.AuditAction]string{
	domain.AuditReceived:  "was received",
	domain.AuditForwarded: "was forwarded",
	domain.AuditReleased:  "is ready for release",
	domain.AuditCompleted: "was completed",
	domain.AuditDeclined:  "was declined",
}

// requestUpdate notifies the requester of a custody or status change.
func (b messageBuilder) requestUpdate(req *domain.Request, entry *domain.AuditEntry, deptName string) domain.Notification {
	verb := requestActionVerbs[entry.Action]
	msg := fmt.Sprintf("Your request %s %s.", req.HumanCode, verb)
	switch {
	case entry.Action == domain.AuditForwarded && entry.ToDepartmentID == nil:
		msg = fmt.Sprintf("Your request %s was returned to sender.", req.HumanCode)
	case entry.Action == domain.AuditForwarded:
		msg = fmt.Sprintf("Your request %s was forwarded to %s.", req.HumanCode, deptName)
	}
	return domain.Notification{
		UserID:   req.RequesterID,
		Title:    "Request " + strings.ToLower(string(entry.Action)),
		Message:  msg,
		Kind:     domain.NotificationRequestUpdate,
		Metadata: metadata(req.ID, req.HumanCode, entry.CreatedAt),
		Link:     b.link(domain.KindRequest, req.ID),
	}
}

// signed returns the pair of notifications emitted for one signature: signer first, then owner.
func (b messageBuilder) signed(kind domain.DocumentKind, id uuid.UUID, code string, ownerID int64, sig *domain.Signature, signerName string) []domain.Notification {
	meta := metadata(id, code, sig.SignedAt)
	return []domain.Notification{
		{
			UserID:   sig.SignerID,
			Title:    "Document signed",
			Message:  fmt.Sprintf("You signed %s.", code),
			Kind:     domain.NotificationSignature,
			Metadata: meta,
			Link:     b.link(kind, id),
		},
		{
			UserID:   ownerID,
			Title:    "New signature",
			Message:  fmt.Sprintf("%s signed your document %s.", signerName, code),
			Kind:     domain.NotificationSignature,
			Metadata: meta,
			Link:     b.link(kind, id),
		},
	}
}

// gateStatusChanged notifies the submitter of a gate document status change.
func (b messageBuilder) gateStatusChanged(doc *domain.GateDocument, at time.Time) domain.Notification {
	kind := strings.ToLower(strings.ReplaceAll(string(doc.Kind), "_", " "))
	return domain.Notification{
		UserID:   doc.SubmitterID,
		Title:    "Status update",
		Message:  fmt.Sprintf("Your %s %s is now %s.", kind, doc.HumanCode, strings.ToLower(string(doc.Status))),
		Kind:     domain.NotificationApproval,
		Metadata: metadata(doc.ID, doc.HumanCode, at),
		Link:     b.link(doc.Kind, doc.ID),
	}
}
