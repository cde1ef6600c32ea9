package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctrack/internal/domain"
)

func policy(t *testing.T, kind domain.DocumentKind) domain.Policy {
	t.Helper()
	p, err := domain.PolicyFor(kind)
	require.NoError(t, err)
	return p
}

func TestPolicy_DeanQueue(t *testing.T) {
	assert.Equal(t, domain.GateStatusPending, policy(t, domain.KindClearance).DeanQueue())
	assert.Equal(t, domain.GateStatusPending, policy(t, domain.KindPassSlip).DeanQueue())
	assert.Equal(t, domain.GateStatusPending, policy(t, domain.KindTravelOrder).DeanQueue())
	assert.Equal(t, domain.GateStatusSentToDean, policy(t, domain.KindAccomplishmentReport).DeanQueue())
}

func TestPolicy_CanSignGate(t *testing.T) {
	tests := []struct {
		kind   domain.DocumentKind
		status domain.GateStatus
		want   bool
	}{
		{domain.KindClearance, domain.GateStatusPending, true},
		{domain.KindClearance, domain.GateStatusApprovedByDean, true},
		{domain.KindPassSlip, domain.GateStatusApprovedByDean, false},
		{domain.KindTravelOrder, domain.GateStatusApprovedByDean, true},
		{domain.KindAccomplishmentReport, domain.GateStatusPending, true},
		{domain.KindAccomplishmentReport, domain.GateStatusSentToDean, false},
		{domain.KindAccomplishmentReport, domain.GateStatusApprovedByDean, false},
		{domain.KindClearance, domain.GateStatusApprovedByPresident, false},
		{domain.KindClearance, domain.GateStatusRejected, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"_"+string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, policy(t, tt.kind).CanSignGate(tt.status))
		})
	}
}

func TestPlanGateDecision(t *testing.T) {
	clr := policy(t, domain.KindClearance)
	ar := policy(t, domain.KindAccomplishmentReport)

	tests := []struct {
		name       string
		p          domain.Policy
		status     domain.GateStatus
		cmd        domain.Command
		role       domain.UserRole
		wantStatus domain.GateStatus
		wantAction domain.AuditAction
		wantErr    error
	}{
		{"dean approves pending clearance", clr, domain.GateStatusPending, domain.CommandApprove, domain.RoleDean, domain.GateStatusApprovedByDean, domain.AuditApproved, nil},
		{"dean rejects pending clearance", clr, domain.GateStatusPending, domain.CommandReject, domain.RoleDean, domain.GateStatusRejected, domain.AuditDeclined, nil},
		{"president approves after dean", clr, domain.GateStatusApprovedByDean, domain.CommandApprove, domain.RolePresident, domain.GateStatusApprovedByPresident, domain.AuditApproved, nil},
		{"president rejects after dean", clr, domain.GateStatusApprovedByDean, domain.CommandReject, domain.RolePresident, domain.GateStatusRejected, domain.AuditDeclined, nil},
		{"president cannot skip dean", clr, domain.GateStatusPending, domain.CommandApprove, domain.RolePresident, "", "", domain.ErrInvalidTransition},
		{"dean cannot approve twice", clr, domain.GateStatusApprovedByDean, domain.CommandApprove, domain.RoleDean, "", "", domain.ErrInvalidTransition},
		{"head cannot decide", clr, domain.GateStatusPending, domain.CommandApprove, domain.RoleHead, "", "", domain.ErrUnauthorized},
		{"terminal is immutable", clr, domain.GateStatusApprovedByPresident, domain.CommandReject, domain.RolePresident, "", "", domain.ErrInvalidTransition},
		{"dean waits for report signatures", ar, domain.GateStatusPending, domain.CommandApprove, domain.RoleDean, "", "", domain.ErrInvalidTransition},
		{"dean rejects report still collecting signatures", ar, domain.GateStatusPending, domain.CommandReject, domain.RoleDean, domain.GateStatusRejected, domain.AuditDeclined, nil},
		{"president cannot reject pending report", ar, domain.GateStatusPending, domain.CommandReject, domain.RolePresident, "", "", domain.ErrInvalidTransition},
		{"dean approves routed report", ar, domain.GateStatusSentToDean, domain.CommandApprove, domain.RoleDean, domain.GateStatusApprovedByDean, domain.AuditApproved, nil},
		{"forward is not a decision", clr, domain.GateStatusPending, domain.CommandForward, domain.RoleDean, "", "", domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, action, err := domain.PlanGateDecision(tt.p, tt.status, tt.cmd, tt.role)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantAction, action)
		})
	}
}

func TestAwaitingStages(t *testing.T) {
	dean, err := domain.AwaitingStages(domain.RoleDean, nil)
	require.NoError(t, err)
	assert.Len(t, dean, 4)
	assert.Contains(t, dean, domain.GateStage{Kind: domain.KindAccomplishmentReport, Status: domain.GateStatusSentToDean})
	assert.Contains(t, dean, domain.GateStage{Kind: domain.KindPassSlip, Status: domain.GateStatusPending})

	kind := domain.KindTravelOrder
	pres, err := domain.AwaitingStages(domain.RolePresident, &kind)
	require.NoError(t, err)
	assert.Equal(t, []domain.GateStage{{Kind: domain.KindTravelOrder, Status: domain.GateStatusApprovedByDean}}, pres)

	_, err = domain.AwaitingStages(domain.RoleUser, nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	unknown := domain.DocumentKind("MEMO")
	_, err = domain.AwaitingStages(domain.RoleDean, &unknown)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReplayGate(t *testing.T) {
	created := domain.AuditEntry{Action: domain.AuditCreated}

	status, err := domain.ReplayGate(domain.KindTravelOrder, []domain.AuditEntry{
		created,
		{Action: domain.AuditReviewed},
		{Action: domain.AuditApproved},
		{Action: domain.AuditApproved},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.GateStatusApprovedByPresident, status)

	status, err = domain.ReplayGate(domain.KindAccomplishmentReport, []domain.AuditEntry{
		created,
		{Action: domain.AuditReviewed},
		{Action: domain.AuditRouted},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.GateStatusSentToDean, status)

	status, err = domain.ReplayGate(domain.KindClearance, []domain.AuditEntry{
		created,
		{Action: domain.AuditUpdated},
		{Action: domain.AuditApproved},
		{Action: domain.AuditDeclined},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.GateStatusRejected, status)

	_, err = domain.ReplayGate(domain.KindClearance, nil)
	assert.ErrorIs(t, err, domain.ErrBrokenTimeline)
}

func TestGateDocument_Flags(t *testing.T) {
	doc := domain.GateDocument{Kind: domain.KindAccomplishmentReport, Status: domain.GateStatusSentToDean}
	assert.True(t, doc.IsInDean())
	assert.False(t, doc.IsInPresident())
	assert.False(t, doc.IsHaveDeanSignature())

	doc.Status = domain.GateStatusApprovedByDean
	assert.False(t, doc.IsInDean())
	assert.True(t, doc.IsInPresident())
	assert.True(t, doc.IsHaveDeanSignature())
	assert.False(t, doc.IsHavePresidentSignature())

	body, err := json.Marshal(doc)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, true, decoded["is_in_president"])
	assert.Equal(t, "APPROVED BY DEAN", decoded["status"])
}

func TestValidateDetails(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.DocumentKind
		raw     string
		wantErr bool
	}{
		{"clearance ok", domain.KindClearance, `{"school_year":"2025-2026","semester":"1st"}`, false},
		{"clearance missing semester", domain.KindClearance, `{"school_year":"2025-2026"}`, true},
		{"unknown field", domain.KindClearance, `{"school_year":"2025-2026","semester":"1st","extra":1}`, true},
		{"pass slip ok", domain.KindPassSlip, `{"destination":"City Hall","time_out":"2026-03-01T09:00:00Z","expected_return":"2026-03-01T11:00:00Z"}`, false},
		{"pass slip returns before leaving", domain.KindPassSlip, `{"destination":"City Hall","time_out":"2026-03-01T11:00:00Z","expected_return":"2026-03-01T09:00:00Z"}`, true},
		{"travel order ok", domain.KindTravelOrder, `{"destination":"Manila","departure_date":"2026-03-01","return_date":"2026-03-03","funding_source":"MOOE"}`, false},
		{"travel order reversed dates", domain.KindTravelOrder, `{"destination":"Manila","departure_date":"2026-03-03","return_date":"2026-03-01","funding_source":"MOOE"}`, true},
		{"report ok", domain.KindAccomplishmentReport, `{"period_start":"2026-01-01","period_end":"2026-01-31","entries":[{"date":"2026-01-10","activity":"Seminar","output":"Certificate"}]}`, false},
		{"report without entries", domain.KindAccomplishmentReport, `{"period_start":"2026-01-01","period_end":"2026-01-31","entries":[]}`, true},
		{"report bad entry date", domain.KindAccomplishmentReport, `{"period_start":"2026-01-01","period_end":"2026-01-31","entries":[{"date":"Jan 10","activity":"Seminar"}]}`, true},
		{"empty details", domain.KindClearance, ``, true},
		{"request kind has no details", domain.KindRequest, `{}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := domain.ValidateDetails(tt.kind, json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.True(t, json.Valid(out))
		})
	}
}
