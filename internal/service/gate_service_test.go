package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctrack/internal/domain"
	"doctrack/internal/service"
)

func (e *engine) submit(t *testing.T, kind domain.DocumentKind, signers ...int64) *domain.GateDocument {
	t.Helper()
	var d any
	switch kind {
	case domain.KindClearance:
		d = domain.ClearanceDetails{SchoolYear: "2025-2026", Semester: "1st"}
	case domain.KindPassSlip:
		out := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		d = domain.PassSlipDetails{Destination: "City Hall", TimeOut: out, ExpectedReturn: out.Add(2 * time.Hour)}
	case domain.KindTravelOrder:
		d = domain.TravelOrderDetails{Destination: "Manila", DepartureDate: "2026-03-02", ReturnDate: "2026-03-04", FundingSource: "MOOE"}
	case domain.KindAccomplishmentReport:
		d = domain.AccomplishmentReportDetails{
			PeriodStart: "2026-02-01",
			PeriodEnd:   "2026-02-28",
			Entries:     []domain.AccomplishmentEntry{{Date: "2026-02-10", Activity: "Enrollment audit", Output: "Report"}},
		}
	}
	doc, err := e.gates.Submit(context.Background(), requester, &service.SubmitGateInput{
		Kind:              kind,
		Purpose:           "Monthly filing",
		Details:           details(t, d),
		RequiredSignerIDs: signers,
	})
	require.NoError(t, err)
	return doc
}

func (e *engine) gateActions(t *testing.T, doc *domain.GateDocument) []domain.AuditAction {
	t.Helper()
	entries, err := e.timeline.GetTimeline(context.Background(), doc.ID)
	require.NoError(t, err)
	out := make([]domain.AuditAction, len(entries))
	for i, en := range entries {
		out[i] = en.Action
	}
	return out
}

func TestGate_TravelOrderApprovalPath(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	doc := e.submit(t, domain.KindTravelOrder)
	assert.True(t, strings.HasPrefix(doc.HumanCode, "TO-"))
	assert.Equal(t, domain.GateStatusPending, doc.Status)
	assert.True(t, doc.IsInDean())

	_, err := e.gates.Decide(ctx, doc.ID, domain.CommandApprove, president, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	got, err := e.gates.Decide(ctx, doc.ID, domain.CommandApprove, dean, "")
	require.NoError(t, err)
	assert.Equal(t, domain.GateStatusApprovedByDean, got.Status)
	assert.True(t, got.IsInPresident())

	_, err = e.gates.Sign(ctx, doc.ID, accountingHead)
	require.NoError(t, err)

	got, err = e.gates.Decide(ctx, doc.ID, domain.CommandApprove, president, "Approved for travel")
	require.NoError(t, err)
	assert.Equal(t, domain.GateStatusApprovedByPresident, got.Status)
	assert.True(t, got.IsHavePresidentSignature())
	assert.Equal(t, []int64{accountingHead.UserID}, got.SignerIDs)

	_, err = e.gates.Sign(ctx, doc.ID, registrarHead)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = e.gates.Decide(ctx, doc.ID, domain.CommandReject, president, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.Equal(t, []domain.AuditAction{
		domain.AuditCreated,
		domain.AuditApproved,
		domain.AuditReviewed,
		domain.AuditApproved,
	}, e.gateActions(t, doc))

	entries, err := e.timeline.GetTimeline(ctx, doc.ID)
	require.NoError(t, err)
	status, err := domain.ReplayGate(domain.KindTravelOrder, entries)
	require.NoError(t, err)
	assert.Equal(t, got.Status, status)

	updates := 0
	for _, n := range e.notes.For(requester.UserID) {
		if n.Kind == domain.NotificationApproval {
			updates++
		}
	}
	assert.Equal(t, 2, updates)
}

func TestGate_PassSlipNotSignableAwaitingPresident(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	doc := e.submit(t, domain.KindPassSlip)

	_, err := e.gates.Decide(ctx, doc.ID, domain.CommandApprove, dean, "")
	require.NoError(t, err)

	_, err = e.gates.Sign(ctx, doc.ID, accountingHead)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestGate_RejectAtEitherTier(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	first := e.submit(t, domain.KindClearance)
	got, err := e.gates.Decide(ctx, first.ID, domain.CommandReject, dean, "")
	require.NoError(t, err)
	assert.Equal(t, domain.GateStatusRejected, got.Status)

	second := e.submit(t, domain.KindClearance)
	_, err = e.gates.Decide(ctx, second.ID, domain.CommandApprove, dean, "")
	require.NoError(t, err)
	got, err = e.gates.Decide(ctx, second.ID, domain.CommandReject, president, "Incomplete")
	require.NoError(t, err)
	assert.Equal(t, domain.GateStatusRejected, got.Status)

	entries, err := e.timeline.GetTimeline(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Incomplete", entries[len(entries)-1].Remarks)
}

func TestGate_DecisionRoles(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	doc := e.submit(t, domain.KindClearance)

	_, err := e.gates.Decide(ctx, doc.ID, domain.CommandApprove, accountingHead, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = e.gates.Decide(ctx, doc.ID, domain.CommandSign, dean, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, []domain.AuditAction{domain.AuditCreated}, e.gateActions(t, doc))
}

func TestGate_AccomplishmentReportAutoAdvances(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	doc := e.submit(t, domain.KindAccomplishmentReport, registrarHead.UserID, accountingHead.UserID)
	assert.False(t, doc.IsInDean())

	_, err := e.gates.Decide(ctx, doc.ID, domain.CommandApprove, dean, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = e.gates.Sign(ctx, doc.ID, registrarHead)
	require.NoError(t, err)
	got, err := e.gates.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GateStatusPending, got.Status)

	queue, total, err := e.gates.ListAwaiting(ctx, dean, nil, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, queue)

	_, err = e.gates.Sign(ctx, doc.ID, accountingHead)
	require.NoError(t, err)
	got, err = e.gates.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GateStatusSentToDean, got.Status)

	kind := domain.KindAccomplishmentReport
	queue, total, err = e.gates.ListAwaiting(ctx, dean, &kind, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, doc.ID, queue[0].ID)

	_, err = e.gates.Sign(ctx, doc.ID, requester)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.Equal(t, []domain.AuditAction{
		domain.AuditCreated,
		domain.AuditReviewed,
		domain.AuditReviewed,
		domain.AuditRouted,
	}, e.gateActions(t, doc))

	entries, err := e.timeline.GetTimeline(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, entries[3].ActedBy)

	got, err = e.gates.Decide(ctx, doc.ID, domain.CommandApprove, dean, "")
	require.NoError(t, err)
	assert.Equal(t, domain.GateStatusApprovedByDean, got.Status)

	queue, total, err = e.gates.ListAwaiting(ctx, president, nil, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, doc.ID, queue[0].ID)
}

func TestGate_DeanRejectsReportStillCollectingSignatures(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	doc := e.submit(t, domain.KindAccomplishmentReport, accountingHead.UserID, registrarHead.UserID)

	_, err := e.gates.Sign(ctx, doc.ID, accountingHead)
	require.NoError(t, err)

	got, err := e.gates.Decide(ctx, doc.ID, domain.CommandReject, dean, "Missing entries")
	require.NoError(t, err)
	assert.Equal(t, domain.GateStatusRejected, got.Status)

	_, err = e.gates.Sign(ctx, doc.ID, registrarHead)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	entries, err := e.timeline.GetTimeline(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.AuditAction{
		domain.AuditCreated,
		domain.AuditReviewed,
		domain.AuditDeclined,
	}, e.gateActions(t, doc))
	status, err := domain.ReplayGate(doc.Kind, entries)
	require.NoError(t, err)
	assert.Equal(t, domain.GateStatusRejected, status)
}

func TestGate_AccomplishmentReportRequiresSigners(t *testing.T) {
	e := newEngine(t)
	_, err := e.gates.Submit(context.Background(), requester, &service.SubmitGateInput{
		Kind:    domain.KindAccomplishmentReport,
		Purpose: "February report",
		Details: details(t, domain.AccomplishmentReportDetails{
			PeriodStart: "2026-02-01",
			PeriodEnd:   "2026-02-28",
			Entries:     []domain.AccomplishmentEntry{{Date: "2026-02-10", Activity: "Audit"}},
		}),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGate_UpdateNarrowingSignersAdvances(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	doc := e.submit(t, domain.KindAccomplishmentReport, registrarHead.UserID, accountingHead.UserID)

	_, err := e.gates.Sign(ctx, doc.ID, registrarHead)
	require.NoError(t, err)

	got, err := e.gates.Update(ctx, doc.ID, requester, &service.UpdateGateInput{
		Purpose:           "Revised filing",
		Details:           doc.Details,
		RequiredSignerIDs: []int64{registrarHead.UserID},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.GateStatusSentToDean, got.Status)
	assert.Equal(t, "Revised filing", got.Purpose)

	actions := e.gateActions(t, doc)
	assert.Equal(t, domain.AuditUpdated, actions[len(actions)-2])
	assert.Equal(t, domain.AuditRouted, actions[len(actions)-1])

	_, err = e.gates.Update(ctx, doc.ID, requester, &service.UpdateGateInput{Purpose: "Again", Details: doc.Details, RequiredSignerIDs: []int64{registrarHead.UserID}})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestGate_UpdateRules(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	doc := e.submit(t, domain.KindClearance)

	_, err := e.gates.Update(ctx, doc.ID, accountingStaf, &service.UpdateGateInput{Purpose: "x", Details: doc.Details})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = e.gates.Update(ctx, doc.ID, requester, &service.UpdateGateInput{Purpose: "x", Details: []byte(`{"school_year":"2025"}`)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := e.gates.Update(ctx, doc.ID, requester, &service.UpdateGateInput{
		Purpose: "Second semester clearance",
		Details: details(t, domain.ClearanceDetails{SchoolYear: "2025-2026", Semester: "2nd"}),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.GateStatusPending, got.Status)
	assert.JSONEq(t, `{"school_year":"2025-2026","semester":"2nd"}`, string(got.Details))
}

func TestGate_Delete(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	t.Run("pending and unsigned", func(t *testing.T) {
		doc := e.submit(t, domain.KindPassSlip)
		require.NoError(t, e.gates.Delete(ctx, doc.ID, requester))
		_, err := e.gates.Get(ctx, doc.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, []domain.AuditAction{domain.AuditCreated, domain.AuditDeleted}, e.gateActions(t, doc))
	})

	t.Run("not the submitter", func(t *testing.T) {
		doc := e.submit(t, domain.KindPassSlip)
		assert.ErrorIs(t, e.gates.Delete(ctx, doc.ID, dean), domain.ErrUnauthorized)
	})

	t.Run("signed", func(t *testing.T) {
		doc := e.submit(t, domain.KindPassSlip)
		_, err := e.gates.Sign(ctx, doc.ID, accountingHead)
		require.NoError(t, err)
		assert.ErrorIs(t, e.gates.Delete(ctx, doc.ID, requester), domain.ErrInvalidTransition)
	})

	t.Run("decided", func(t *testing.T) {
		doc := e.submit(t, domain.KindPassSlip)
		_, err := e.gates.Decide(ctx, doc.ID, domain.CommandApprove, dean, "")
		require.NoError(t, err)
		assert.ErrorIs(t, e.gates.Delete(ctx, doc.ID, requester), domain.ErrInvalidTransition)
	})
}

func TestGate_SubmitValidationAndIdempotency(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.gates.Submit(ctx, requester, &service.SubmitGateInput{Kind: domain.KindRequest, Purpose: "x", Details: []byte(`{}`)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.gates.Submit(ctx, requester, &service.SubmitGateInput{
		Kind:    domain.KindClearance,
		Purpose: "x",
		Details: []byte(`{"school_year":"2025-2026","semester":"1st","extra":true}`),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	input := &service.SubmitGateInput{
		Kind:           domain.KindClearance,
		Purpose:        "End of term",
		Details:        details(t, domain.ClearanceDetails{SchoolYear: "2025-2026", Semester: "1st"}),
		IdempotencyKey: "clr-1",
	}
	first, err := e.gates.Submit(ctx, requester, input)
	require.NoError(t, err)
	second, err := e.gates.Submit(ctx, requester, input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, total, err := e.gates.ListMine(ctx, requester, nil, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestGate_ListAwaitingRequiresApprover(t *testing.T) {
	e := newEngine(t)
	_, _, err := e.gates.ListAwaiting(context.Background(), accountingHead, nil, 0, 10)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGate_DuplicateSignature(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	doc := e.submit(t, domain.KindClearance)

	_, err := e.gates.Sign(ctx, doc.ID, accountingHead)
	require.NoError(t, err)
	_, err = e.gates.Sign(ctx, doc.ID, accountingHead)
	assert.ErrorIs(t, err, domain.ErrDuplicateSignature)
	assert.Equal(t, []domain.AuditAction{domain.AuditCreated, domain.AuditReviewed}, e.gateActions(t, doc))
}
