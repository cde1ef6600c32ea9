package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DeanQueue is the status a gate document sits in while waiting for the dean.
// Kinds that collect signatures first enter it only after the last required signature.
func (p Policy) DeanQueue() GateStatus {
	if p.AutoAdvanceOnFullSignature {
		return GateStatusSentToDean
	}
	return GateStatusPending
}

// CanSignGate reports whether a gate document in status s accepts signatures.
func (p Policy) CanSignGate(s GateStatus) bool {
	switch s {
	case GateStatusPending:
		return true
	case GateStatusSentToDean:
		return !p.AutoAdvanceOnFullSignature
	case GateStatusApprovedByDean:
		return p.SignInFinalStage
	default:
		return false
	}
}

// PlanGateDecision resolves an approve or reject command by role against the two-tier gate.
func PlanGateDecision(p Policy, status GateStatus, cmd Command, role UserRole) (GateStatus, AuditAction, error) {
	if cmd != CommandApprove && cmd != CommandReject {
		return status, "", Validationf("command %s is not a gate decision", cmd)
	}
	if status.IsTerminal() {
		return status, "", fmt.Errorf("%w: %s document is %s", ErrInvalidTransition, p.Kind, status)
	}

	var stage GateStatus
	switch role {
	case RoleDean:
		stage = p.DeanQueue()
	case RolePresident:
		stage = GateStatusApprovedByDean
	default:
		return status, "", fmt.Errorf("%w: role %s cannot decide %s documents", ErrUnauthorized, role, p.Kind)
	}
	// A report still collecting signatures can be rejected by the dean, not approved.
	earlyReject := role == RoleDean && cmd == CommandReject && status == GateStatusPending
	if status != stage && !earlyReject {
		return status, "", fmt.Errorf("%w: %s cannot %s a document in status %s", ErrInvalidTransition, role, cmd, status)
	}

	if cmd == CommandReject {
		return GateStatusRejected, AuditDeclined, nil
	}
	if role == RoleDean {
		return GateStatusApprovedByDean, AuditApproved, nil
	}
	return GateStatusApprovedByPresident, AuditApproved, nil
}

// GateStage is one (kind, status) queue position.
type GateStage struct {
	Kind   DocumentKind
	Status GateStatus
}

// AwaitingStages lists the queue positions waiting for role's decision, optionally narrowed to kind.
func AwaitingStages(role UserRole, kind *DocumentKind) ([]GateStage, error) {
	var stages []GateStage
	for _, k := range []DocumentKind{KindClearance, KindPassSlip, KindTravelOrder, KindAccomplishmentReport} {
		if kind != nil && *kind != k {
			continue
		}
		switch role {
		case RoleDean:
			stages = append(stages, GateStage{Kind: k, Status: policies[k].DeanQueue()})
		case RolePresident:
			stages = append(stages, GateStage{Kind: k, Status: GateStatusApprovedByDean})
		default:
			return nil, fmt.Errorf("%w: role %s has no approval queue", ErrUnauthorized, role)
		}
	}
	if len(stages) == 0 {
		return nil, Validationf("unknown document kind %q", *kind)
	}
	return stages, nil
}

// IsInDean reports whether the document waits for the dean's decision.
func (d *GateDocument) IsInDean() bool {
	return d.Status == policies[d.Kind].DeanQueue()
}

// IsInPresident reports whether the document waits for the president's decision.
func (d *GateDocument) IsInPresident() bool {
	return d.Status == GateStatusApprovedByDean
}

// IsHaveDeanSignature reports whether the dean has approved.
func (d *GateDocument) IsHaveDeanSignature() bool {
	return d.Status == GateStatusApprovedByDean || d.Status == GateStatusApprovedByPresident
}

// IsHavePresidentSignature reports whether the president has approved.
func (d *GateDocument) IsHavePresidentSignature() bool {
	return d.Status == GateStatusApprovedByPresident
}

// MarshalJSON adds the status-derived flags to the document payload.
func (d GateDocument) MarshalJSON() ([]byte, error) {
	type plain GateDocument
	return json.Marshal(struct {
		plain
		IsInDean                 bool `json:"is_in_dean"`
		IsInPresident            bool `json:"is_in_president"`
		IsHaveDeanSignature      bool `json:"is_have_dean_signature"`
		IsHavePresidentSignature bool `json:"is_have_president_signature"`
	}{
		plain:                    plain(d),
		IsInDean:                 d.IsInDean(),
		IsInPresident:            d.IsInPresident(),
		IsHaveDeanSignature:      d.IsHaveDeanSignature(),
		IsHavePresidentSignature: d.IsHavePresidentSignature(),
	})
}

// ReplayGate folds a gate document timeline into the status it implies.
func ReplayGate(kind DocumentKind, entries []AuditEntry) (GateStatus, error) {
	p, err := PolicyFor(kind)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 || entries[0].Action != AuditCreated {
		return "", ErrBrokenTimeline
	}
	status := GateStatusPending
	for _, e := range entries[1:] {
		switch e.Action {
		case AuditRouted:
			status = p.DeanQueue()
		case AuditApproved:
			if status == GateStatusApprovedByDean {
				status = GateStatusApprovedByPresident
			} else {
				status = GateStatusApprovedByDean
			}
		case AuditDeclined:
			status = GateStatusRejected
		case AuditCreated:
			return status, fmt.Errorf("%w: duplicate creation entry %s", ErrBrokenTimeline, e.ID)
		}
	}
	return status, nil
}

const dateLayout = "2006-01-02"

// ClearanceDetails are the kind-specific fields of a clearance.
type ClearanceDetails struct {
	SchoolYear string `json:"school_year"`
	Semester   string `json:"semester"`
}

// PassSlipDetails are the kind-specific fields of a pass slip.
type PassSlipDetails struct {
	Destination    string    `json:"destination"`
	TimeOut        time.Time `json:"time_out"`
	ExpectedReturn time.Time `json:"expected_return"`
}

// TravelOrderDetails are the kind-specific fields of a travel order.
type TravelOrderDetails struct {
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date"`
	FundingSource string `json:"funding_source"`
}

// AccomplishmentEntry is one reported activity.
type AccomplishmentEntry struct {
	Date     string `json:"date"`
	Activity string `json:"activity"`
	Output   string `json:"output"`
}

// AccomplishmentReportDetails are the kind-specific fields of an accomplishment report.
type AccomplishmentReportDetails struct {
	PeriodStart string                `json:"period_start"`
	PeriodEnd   string                `json:"period_end"`
	Entries     []AccomplishmentEntry `json:"entries"`
}

// ValidateDetails decodes raw strictly into the typed details of kind and checks required fields.
// It returns the canonical re-encoded form.
func ValidateDetails(kind DocumentKind, raw json.RawMessage) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, Validationf("details are required for %s", kind)
	}

	var target interface{ validate() error }
	switch kind {
	case KindClearance:
		target = &ClearanceDetails{}
	case KindPassSlip:
		target = &PassSlipDetails{}
	case KindTravelOrder:
		target = &TravelOrderDetails{}
	case KindAccomplishmentReport:
		target = &AccomplishmentReportDetails{}
	default:
		return nil, Validationf("unknown document kind %q", kind)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return nil, Validationf("malformed %s details: %v", kind, err)
	}
	if err := target.validate(); err != nil {
		return nil, err
	}
	out, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("encoding %s details: %w", kind, err)
	}
	return out, nil
}

func (d *ClearanceDetails) validate() error {
	if strings.TrimSpace(d.SchoolYear) == "" {
		return Validationf("school_year is required")
	}
	if strings.TrimSpace(d.Semester) == "" {
		return Validationf("semester is required")
	}
	return nil
}

func (d *PassSlipDetails) validate() error {
	if strings.TrimSpace(d.Destination) == "" {
		return Validationf("destination is required")
	}
	if d.TimeOut.IsZero() || d.ExpectedReturn.IsZero() {
		return Validationf("time_out and expected_return are required")
	}
	if !d.ExpectedReturn.After(d.TimeOut) {
		return Validationf("expected_return must be after time_out")
	}
	return nil
}

func (d *TravelOrderDetails) validate() error {
	if strings.TrimSpace(d.Destination) == "" {
		return Validationf("destination is required")
	}
	if strings.TrimSpace(d.FundingSource) == "" {
		return Validationf("funding_source is required")
	}
	return checkDateRange("departure_date", d.DepartureDate, "return_date", d.ReturnDate)
}

func (d *AccomplishmentReportDetails) validate() error {
	if err := checkDateRange("period_start", d.PeriodStart, "period_end", d.PeriodEnd); err != nil {
		return err
	}
	if len(d.Entries) == 0 {
		return Validationf("at least one entry is required")
	}
	for i, e := range d.Entries {
		if strings.TrimSpace(e.Activity) == "" {
			return Validationf("entries[%d].activity is required", i)
		}
		if _, err := time.Parse(dateLayout, e.Date); err != nil {
			return Validationf("entries[%d].date must be YYYY-MM-DD", i)
		}
	}
	return nil
}

func checkDateRange(startName, start, endName, end string) error {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return Validationf("%s must be YYYY-MM-DD", startName)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return Validationf("%s must be YYYY-MM-DD", endName)
	}
	if e.Before(s) {
		return Validationf("%s must not be before %s", endName, startName)
	}
	return nil
}
