package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctrack/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestAuthorize(t *testing.T) {
	tests := []struct {
		role   domain.UserRole
		cmd    domain.Command
		ok     bool
		scoped bool
	}{
		{domain.RoleUser, domain.CommandCreate, true, false},
		{domain.RoleUser, domain.CommandReceive, true, true},
		{domain.RoleUser, domain.CommandForward, true, true},
		{domain.RoleUser, domain.CommandSign, true, false},
		{domain.RoleUser, domain.CommandRelease, false, false},
		{domain.RoleUser, domain.CommandComplete, false, false},
		{domain.RoleUser, domain.CommandDeny, false, false},
		{domain.RoleUser, domain.CommandApprove, false, false},
		{domain.RoleHead, domain.CommandRelease, true, true},
		{domain.RoleHead, domain.CommandDeny, true, true},
		{domain.RoleHead, domain.CommandApprove, false, false},
		{domain.RoleMISD, domain.CommandComplete, true, true},
		{domain.RoleDean, domain.CommandComplete, true, false},
		{domain.RoleDean, domain.CommandApprove, true, false},
		{domain.RolePresident, domain.CommandReject, true, false},
		{domain.UserRole("GUEST"), domain.CommandCreate, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"_"+string(tt.cmd), func(t *testing.T) {
			c, err := domain.Authorize(tt.role, tt.cmd)
			if !tt.ok {
				assert.ErrorIs(t, err, domain.ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.scoped, c.DepartmentScoped)
		})
	}
}

func TestCapability_CheckScope(t *testing.T) {
	c, err := domain.Authorize(domain.RoleHead, domain.CommandRelease)
	require.NoError(t, err)

	assert.NoError(t, c.CheckScope(domain.Actor{DepartmentID: 3}, 3))
	assert.ErrorIs(t, c.CheckScope(domain.Actor{DepartmentID: 4}, 3), domain.ErrUnauthorized)

	dean, err := domain.Authorize(domain.RoleDean, domain.CommandRelease)
	require.NoError(t, err)
	assert.NoError(t, dean.CheckScope(domain.Actor{DepartmentID: 4}, 3))
}

func TestPolicyFor(t *testing.T) {
	p, err := domain.PolicyFor(domain.KindAccomplishmentReport)
	require.NoError(t, err)
	assert.Equal(t, "AR", p.CodePrefix)
	assert.True(t, p.AutoAdvanceOnFullSignature)

	_, err = domain.PolicyFor(domain.DocumentKind("MEMO"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPolicy_CanSignRequest(t *testing.T) {
	p, err := domain.PolicyFor(domain.KindRequest)
	require.NoError(t, err)

	assert.True(t, p.CanSignRequest(domain.RequestStatusToReceive))
	assert.True(t, p.CanSignRequest(domain.RequestStatusOngoing))
	assert.True(t, p.CanSignRequest(domain.RequestStatusToRelease))
	assert.False(t, p.CanSignRequest(domain.RequestStatusCompleted))
	assert.False(t, p.CanSignRequest(domain.RequestStatusDeclined))
}

func TestPlanRequestCommand_TransitionTable(t *testing.T) {
	statuses := []domain.RequestStatus{
		domain.RequestStatusToReceive,
		domain.RequestStatusOngoing,
		domain.RequestStatusToRelease,
		domain.RequestStatusCompleted,
		domain.RequestStatusDeclined,
	}
	legal := map[domain.Command]map[domain.RequestStatus]domain.RequestStatus{
		domain.CommandReceive: {
			domain.RequestStatusToReceive: domain.RequestStatusOngoing,
		},
		domain.CommandForward: {
			domain.RequestStatusOngoing: domain.RequestStatusOngoing,
		},
		domain.CommandRelease: {
			domain.RequestStatusToReceive: domain.RequestStatusToRelease,
			domain.RequestStatusOngoing:   domain.RequestStatusToRelease,
		},
		domain.CommandComplete: {
			domain.RequestStatusToReceive: domain.RequestStatusCompleted,
			domain.RequestStatusOngoing:   domain.RequestStatusCompleted,
			domain.RequestStatusToRelease: domain.RequestStatusCompleted,
		},
		domain.CommandDeny: {
			domain.RequestStatusToReceive: domain.RequestStatusDeclined,
			domain.RequestStatusOngoing:   domain.RequestStatusDeclined,
			domain.RequestStatusToRelease: domain.RequestStatusDeclined,
		},
	}

	for cmd, allowed := range legal {
		for _, from := range statuses {
			t.Run(string(cmd)+"_from_"+string(from), func(t *testing.T) {
				state := domain.RequestState{Status: from, DepartmentID: 1}
				next, entry, err := domain.PlanRequestCommand(state, cmd, 42, ptr(int64(2)), "")

				want, ok := allowed[from]
				if !ok {
					assert.ErrorIs(t, err, domain.ErrInvalidTransition)
					assert.Equal(t, state, next)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, want, next.Status)
				assert.Equal(t, int64(42), *entry.ActedBy)
				assert.NotEmpty(t, entry.Remarks)
			})
		}
	}
}

func TestPlanRequestCommand_Forward(t *testing.T) {
	state := domain.RequestState{Status: domain.RequestStatusOngoing, DepartmentID: 1}

	t.Run("moves custody", func(t *testing.T) {
		next, entry, err := domain.PlanRequestCommand(state, domain.CommandForward, 7, ptr(int64(5)), "please check")
		require.NoError(t, err)
		assert.Equal(t, int64(5), next.DepartmentID)
		assert.Equal(t, domain.RequestStatusOngoing, next.Status)
		assert.Equal(t, domain.AuditForwarded, entry.Action)
		assert.Equal(t, int64(1), *entry.FromDepartmentID)
		assert.Equal(t, int64(5), *entry.ToDepartmentID)
		assert.Equal(t, "please check", entry.Remarks)
	})

	t.Run("return to sender keeps custody", func(t *testing.T) {
		next, entry, err := domain.PlanRequestCommand(state, domain.CommandForward, 7, nil, "")
		require.NoError(t, err)
		assert.Equal(t, state, next)
		assert.Nil(t, entry.ToDepartmentID)
		assert.Equal(t, "Returned to sender", entry.Remarks)
	})

	t.Run("same department is rejected", func(t *testing.T) {
		_, _, err := domain.PlanRequestCommand(state, domain.CommandForward, 7, ptr(int64(1)), "")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestPlanRequestCommand_NotRouting(t *testing.T) {
	_, _, err := domain.PlanRequestCommand(domain.RequestState{Status: domain.RequestStatusOngoing}, domain.CommandApprove, 1, nil, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReplayRequest_MatchesPlannedState(t *testing.T) {
	created := domain.AuditEntry{ID: uuid.New(), Action: domain.AuditCreated, ToDepartmentID: ptr(int64(1))}
	entries := []domain.AuditEntry{created}

	state := domain.RequestState{Status: domain.RequestStatusToReceive, DepartmentID: 1}
	steps := []struct {
		cmd domain.Command
		to  *int64
	}{
		{domain.CommandReceive, nil},
		{domain.CommandForward, ptr(int64(2))},
		{domain.CommandForward, nil},
		{domain.CommandRelease, nil},
		{domain.CommandComplete, nil},
	}
	for _, s := range steps {
		next, entry, err := domain.PlanRequestCommand(state, s.cmd, 9, s.to, "")
		require.NoError(t, err)
		entries = append(entries, entry)
		state = next
	}

	replayed, err := domain.ReplayRequest(entries)
	require.NoError(t, err)
	assert.Equal(t, state, replayed)
	assert.Equal(t, domain.RequestState{Status: domain.RequestStatusCompleted, DepartmentID: 2}, replayed)
}

func TestReplayRequest_IgnoresSignatures(t *testing.T) {
	entries := []domain.AuditEntry{
		{Action: domain.AuditCreated, ToDepartmentID: ptr(int64(3))},
		{Action: domain.AuditReviewed},
		{Action: domain.AuditReceived},
		{Action: domain.AuditReviewed},
	}
	state, err := domain.ReplayRequest(entries)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestState{Status: domain.RequestStatusOngoing, DepartmentID: 3}, state)
}

func TestReplayRequest_BrokenTimeline(t *testing.T) {
	_, err := domain.ReplayRequest(nil)
	assert.ErrorIs(t, err, domain.ErrBrokenTimeline)

	_, err = domain.ReplayRequest([]domain.AuditEntry{{Action: domain.AuditReceived}})
	assert.ErrorIs(t, err, domain.ErrBrokenTimeline)

	_, err = domain.ReplayRequest([]domain.AuditEntry{
		{Action: domain.AuditCreated, ToDepartmentID: ptr(int64(1))},
		{Action: domain.AuditCreated, ToDepartmentID: ptr(int64(1))},
	})
	assert.ErrorIs(t, err, domain.ErrBrokenTimeline)
}

func TestDefaultRemarks(t *testing.T) {
	assert.Equal(t, "Forwarded to another department", domain.DefaultRemarks(domain.AuditForwarded, ptr(int64(2))))
	assert.Equal(t, "Returned to sender", domain.DefaultRemarks(domain.AuditForwarded, nil))
	assert.Equal(t, "Document signed", domain.DefaultRemarks(domain.AuditReviewed, nil))
	assert.Empty(t, domain.DefaultRemarks(domain.AuditAction("OTHER"), nil))
}

func TestIsDomainError(t *testing.T) {
	assert.True(t, domain.IsDomainError(domain.ErrDocumentNotFound))
	assert.True(t, domain.IsDomainError(domain.Validationf("x")))
	assert.True(t, domain.IsDomainError(domain.ErrUnsupportedFile))
	assert.False(t, domain.IsDomainError(assert.AnError))
}
