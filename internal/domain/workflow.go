package domain

import (
	"errors"
	"fmt"
)

// Capability is one entry of the (role, command) authority table.
type Capability struct {
	// DepartmentScoped requires the actor's department to hold custody of the document.
	DepartmentScoped bool
}

var (
	anywhere = Capability{}
	ownDept  = Capability{DepartmentScoped: true}
)

var baseCapabilities = map[Command]Capability{
	CommandCreate:  anywhere,
	CommandReceive: ownDept,
	CommandSign:    anywhere,
	CommandForward: ownDept,
	CommandUpdate:  anywhere,
	CommandDelete:  anywhere,
}

var capabilities = map[UserRole]map[Command]Capability{
	RoleUser: baseCapabilities,
	RoleHead: withCapabilities(baseCapabilities, map[Command]Capability{
		CommandRelease:  ownDept,
		CommandComplete: ownDept,
		CommandDeny:     ownDept,
	}),
	RoleMISD: withCapabilities(baseCapabilities, map[Command]Capability{
		CommandRelease:  ownDept,
		CommandComplete: ownDept,
		CommandDeny:     ownDept,
	}),
	RoleDean: withCapabilities(baseCapabilities, map[Command]Capability{
		CommandRelease:  anywhere,
		CommandComplete: anywhere,
		CommandDeny:     anywhere,
		CommandApprove:  anywhere,
		CommandReject:   anywhere,
	}),
	RolePresident: withCapabilities(baseCapabilities, map[Command]Capability{
		CommandRelease:  anywhere,
		CommandComplete: anywhere,
		CommandDeny:     anywhere,
		CommandApprove:  anywhere,
		CommandReject:   anywhere,
	}),
}

func withCapabilities(base, extra map[Command]Capability) map[Command]Capability {
	out := make(map[Command]Capability, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Authorize looks up the capability of role for cmd. It does not need any document state.
func Authorize(role UserRole, cmd Command) (Capability, error) {
	c, ok := capabilities[role][cmd]
	if !ok {
		return Capability{}, fmt.Errorf("%w: role %s may not %s", ErrUnauthorized, role, cmd)
	}
	return c, nil
}

// CheckScope verifies the department half of a capability against the current custodian.
func (c Capability) CheckScope(actor Actor, custodian int64) error {
	if c.DepartmentScoped && actor.DepartmentID != custodian {
		return fmt.Errorf("%w: actor department %d does not hold the document", ErrUnauthorized, actor.DepartmentID)
	}
	return nil
}

// Policy holds the per-document-kind switches that differ between document types.
type Policy struct {
	Kind       DocumentKind
	CodePrefix string
	// AutoAdvanceOnFullSignature routes the document to the dean once every required signer has signed.
	AutoAdvanceOnFullSignature bool
	// SignInFinalStage permits signing while a request awaits release or a gate document awaits the president.
	SignInFinalStage bool
}

var policies = map[DocumentKind]Policy{
	KindRequest:              {Kind: KindRequest, CodePrefix: "REQ", SignInFinalStage: true},
	KindClearance:            {Kind: KindClearance, CodePrefix: "CLR", SignInFinalStage: true},
	KindPassSlip:             {Kind: KindPassSlip, CodePrefix: "PS"},
	KindTravelOrder:          {Kind: KindTravelOrder, CodePrefix: "TO", SignInFinalStage: true},
	KindAccomplishmentReport: {Kind: KindAccomplishmentReport, CodePrefix: "AR", AutoAdvanceOnFullSignature: true},
}

// PolicyFor returns the policy of kind.
func PolicyFor(kind DocumentKind) (Policy, error) {
	p, ok := policies[kind]
	if !ok {
		return Policy{}, Validationf("unknown document kind %q", kind)
	}
	return p, nil
}

// CanSignRequest reports whether a request in status s accepts signatures.
func (p Policy) CanSignRequest(s RequestStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if s == RequestStatusToRelease {
		return p.SignInFinalStage
	}
	return true
}

// RequestTransition describes one row of the canonical routing table.
type RequestTransition struct {
	From   []RequestStatus
	To     RequestStatus
	Action AuditAction
}

// Allows reports whether the transition is legal from s.
func (t RequestTransition) Allows(s RequestStatus) bool {
	for _, f := range t.From {
		if f == s {
			return true
		}
	}
	return false
}

var nonTerminalRequest = []RequestStatus{RequestStatusToReceive, RequestStatusOngoing, RequestStatusToRelease}

// RequestTransitions is the closed transition table of the canonical request workflow.
// An empty To leaves the status unchanged.
var RequestTransitions = map[Command]RequestTransition{
	CommandReceive:  {From: []RequestStatus{RequestStatusToReceive}, To: RequestStatusOngoing, Action: AuditReceived},
	CommandForward:  {From: []RequestStatus{RequestStatusOngoing}, Action: AuditForwarded},
	CommandRelease:  {From: []RequestStatus{RequestStatusToReceive, RequestStatusOngoing}, To: RequestStatusToRelease, Action: AuditReleased},
	CommandComplete: {From: nonTerminalRequest, To: RequestStatusCompleted, Action: AuditCompleted},
	CommandDeny:     {From: nonTerminalRequest, To: RequestStatusDeclined, Action: AuditDeclined},
}

// PlanRequestCommand computes the next state and the audit entry for a routing command
// without touching any store. The returned entry has no id, document or timestamps yet.
func PlanRequestCommand(state RequestState, cmd Command, actorID int64, to *int64, remarks string) (RequestState, AuditEntry, error) {
	t, ok := RequestTransitions[cmd]
	if !ok {
		return state, AuditEntry{}, Validationf("command %s is not a routing command", cmd)
	}
	if !t.Allows(state.Status) {
		return state, AuditEntry{}, fmt.Errorf("%w: cannot %s a request in status %s", ErrInvalidTransition, cmd, state.Status)
	}

	next := state
	if t.To != "" {
		next.Status = t.To
	}
	from := state.DepartmentID
	dest := state.DepartmentID
	if cmd == CommandForward {
		if to != nil && *to == state.DepartmentID {
			return state, AuditEntry{}, Validationf("destination department %d already holds the request", *to)
		}
		if to != nil {
			next.DepartmentID = *to
		}
	}

	entry := AuditEntry{
		DocumentKind:     KindRequest,
		Action:           t.Action,
		FromDepartmentID: &from,
		ToDepartmentID:   &dest,
		ActedBy:          &actorID,
		Remarks:          remarks,
	}
	if cmd == CommandForward {
		entry.ToDepartmentID = to
	}
	if entry.Remarks == "" {
		entry.Remarks = DefaultRemarks(entry.Action, entry.ToDepartmentID)
	}
	return next, entry, nil
}

// DefaultRemarks returns the remark recorded when the caller supplies none.
func DefaultRemarks(action AuditAction, to *int64) string {
	switch action {
	case AuditCreated:
		return "Request created"
	case AuditReceived:
		return "Request received"
	case AuditReviewed:
		return "Document signed"
	case AuditForwarded:
		if to == nil {
			return "Returned to sender"
		}
		return "Forwarded to another department"
	case AuditReleased:
		return "Ready for release"
	case AuditCompleted:
		return "Request completed"
	case AuditDeclined:
		return "Request declined"
	case AuditApproved:
		return "Approved"
	case AuditRouted:
		return "All signatures collected; sent to dean"
	case AuditUpdated:
		return "Document updated"
	case AuditDeleted:
		return "Withdrawn by requester"
	}
	return ""
}

// ErrBrokenTimeline is returned when a log cannot be replayed from a creation entry.
var ErrBrokenTimeline = errors.New("timeline does not start with a creation entry")

// ReplayRequest folds a request timeline into the state it implies.
func ReplayRequest(entries []AuditEntry) (RequestState, error) {
	if len(entries) == 0 || entries[0].Action != AuditCreated || entries[0].ToDepartmentID == nil {
		return RequestState{}, ErrBrokenTimeline
	}
	state := RequestState{Status: RequestStatusToReceive, DepartmentID: *entries[0].ToDepartmentID}
	for _, e := range entries[1:] {
		switch e.Action {
		case AuditReceived:
			state.Status = RequestStatusOngoing
		case AuditForwarded:
			if e.ToDepartmentID != nil {
				state.DepartmentID = *e.ToDepartmentID
			}
		case AuditReleased:
			state.Status = RequestStatusToRelease
		case AuditCompleted:
			state.Status = RequestStatusCompleted
		case AuditDeclined:
			state.Status = RequestStatusDeclined
		case AuditCreated:
			return state, fmt.Errorf("%w: duplicate creation entry %s", ErrBrokenTimeline, e.ID)
		}
	}
	return state, nil
}
