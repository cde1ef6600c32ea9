package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"doctrack/internal/domain"
	"doctrack/internal/port"
	"doctrack/internal/repository/memory"
	"doctrack/internal/service"
)

func TestWorkflow_RequestLifecycle(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	req := e.createRequest(t, deptAccounting)
	assert.True(t, strings.HasPrefix(req.HumanCode, "REQ-"))
	assert.Equal(t, domain.RequestStatusToReceive, req.Status)
	assert.Equal(t, deptAccounting, req.CurrentDepartmentID)
	assert.Equal(t, "Ana Cruz", req.RequesterName)

	got, err := e.workflow.ApplyCommand(ctx, req.ID, domain.CommandReceive, accountingStaf, service.CommandParams{})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusOngoing, got.Status)

	sig, err := e.workflow.Sign(ctx, req.ID, accountingStaf)
	require.NoError(t, err)
	assert.Equal(t, accountingStaf.UserID, sig.SignerID)

	got, err = e.workflow.ApplyCommand(ctx, req.ID, domain.CommandForward, accountingStaf, service.CommandParams{ToDepartmentID: ptr(deptRegistrar)})
	require.NoError(t, err)
	assert.Equal(t, deptRegistrar, got.CurrentDepartmentID)
	assert.Equal(t, []int64{accountingStaf.UserID}, got.SignerIDs)

	got, err = e.workflow.ApplyCommand(ctx, req.ID, domain.CommandRelease, registrarHead, service.CommandParams{})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusToRelease, got.Status)

	got, err = e.workflow.ApplyCommand(ctx, req.ID, domain.CommandComplete, registrarHead, service.CommandParams{Remarks: "Picked up"})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusCompleted, got.Status)

	entries, err := e.timeline.GetTimeline(ctx, req.ID)
	require.NoError(t, err)
	actions := make([]domain.AuditAction, len(entries))
	for i, en := range entries {
		actions[i] = en.Action
	}
	assert.Equal(t, []domain.AuditAction{
		domain.AuditCreated,
		domain.AuditReceived,
		domain.AuditReviewed,
		domain.AuditForwarded,
		domain.AuditReleased,
		domain.AuditCompleted,
	}, actions)
	assert.Equal(t, "Picked up", entries[len(entries)-1].Remarks)

	replayed, err := domain.ReplayRequest(entries)
	require.NoError(t, err)
	assert.Equal(t, got.State(), replayed)

	updates := e.notes.For(requester.UserID)
	assert.NotEmpty(t, updates)
	assert.Contains(t, updates[len(updates)-1].Message, "was completed")
}

func TestWorkflow_TerminalIsImmutable(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	req := e.createRequest(t, deptAccounting)

	_, err := e.workflow.ApplyCommand(ctx, req.ID, domain.CommandDeny, accountingHead, service.CommandParams{})
	require.NoError(t, err)
	before := e.auditCount(t, req)

	for _, cmd := range []domain.Command{domain.CommandReceive, domain.CommandRelease, domain.CommandComplete, domain.CommandDeny} {
		_, err := e.workflow.ApplyCommand(ctx, req.ID, cmd, accountingHead, service.CommandParams{})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, string(cmd))
	}
	_, err = e.workflow.Sign(ctx, req.ID, accountingHead)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.Equal(t, before, e.auditCount(t, req))
	current, err := e.workflow.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusDeclined, current.Status)
}

func TestWorkflow_Authorization(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	req := e.createRequest(t, deptAccounting)

	t.Run("user cannot release", func(t *testing.T) {
		_, err := e.workflow.ApplyCommand(ctx, req.ID, domain.CommandRelease, accountingStaf, service.CommandParams{})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("other department cannot receive", func(t *testing.T) {
		_, err := e.workflow.ApplyCommand(ctx, req.ID, domain.CommandReceive, registrarHead, service.CommandParams{})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("dean acts anywhere", func(t *testing.T) {
		got, err := e.workflow.ApplyCommand(ctx, req.ID, domain.CommandRelease, dean, service.CommandParams{})
		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusToRelease, got.Status)
	})

	t.Run("unknown role is rejected before load", func(t *testing.T) {
		_, err := e.workflow.ApplyCommand(ctx, req.ID, domain.CommandReceive, domain.Actor{UserID: 99, Role: "GUEST"}, service.CommandParams{})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestWorkflow_ForwardValidation(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	req := e.createRequest(t, deptAccounting)
	_, err := e.workflow.ApplyCommand(ctx, req.ID, domain.CommandReceive, accountingStaf, service.CommandParams{})
	require.NoError(t, err)

	_, err = e.workflow.ApplyCommand(ctx, req.ID, domain.CommandForward, accountingStaf, service.CommandParams{ToDepartmentID: ptr(int64(999))})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.workflow.ApplyCommand(ctx, req.ID, domain.CommandForward, accountingStaf, service.CommandParams{ToDepartmentID: ptr(deptAccounting)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := e.workflow.ApplyCommand(ctx, req.ID, domain.CommandForward, accountingStaf, service.CommandParams{})
	require.NoError(t, err)
	assert.Equal(t, deptAccounting, got.CurrentDepartmentID)

	entries, err := e.timeline.GetTimeline(ctx, req.ID)
	require.NoError(t, err)
	last := entries[len(entries)-1]
	assert.Equal(t, domain.AuditForwarded, last.Action)
	assert.Nil(t, last.ToDepartmentID)
	assert.Equal(t, "Returned to sender", last.Remarks)
}

func TestWorkflow_CreateValidation(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.workflow.CreateDocument(ctx, requester, &service.CreateRequestInput{RequesterID: requester.UserID, DestinationDepartmentID: deptAccounting})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.workflow.CreateDocument(ctx, requester, &service.CreateRequestInput{RequesterID: requester.UserID, Purpose: "x", DestinationDepartmentID: 999})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	req, err := e.workflow.CreateDocument(ctx, registrarHead, &service.CreateRequestInput{RequesterID: 77, Purpose: "Walk-in", DestinationDepartmentID: deptAccounting})
	require.NoError(t, err)
	assert.Equal(t, service.UnresolvedReferenceName, req.RequesterName)
	assert.Equal(t, registrarHead.UserID, req.CreatedBy)
}

func TestWorkflow_SignatureIdempotence(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	req := e.createRequest(t, deptAccounting)

	_, err := e.workflow.Sign(ctx, req.ID, accountingStaf)
	require.NoError(t, err)
	before := e.auditCount(t, req)

	_, err = e.workflow.Sign(ctx, req.ID, accountingStaf)
	assert.ErrorIs(t, err, domain.ErrDuplicateSignature)
	assert.Equal(t, before, e.auditCount(t, req))

	_, err = e.workflow.Sign(ctx, req.ID, accountingHead)
	require.NoError(t, err)

	got, err := e.workflow.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{accountingStaf.UserID, accountingHead.UserID}, got.SignerIDs)

	signerNotes := e.notes.For(accountingStaf.UserID)
	require.Len(t, signerNotes, 1)
	assert.Equal(t, domain.NotificationSignature, signerNotes[0].Kind)
}

func TestWorkflow_ConcurrentSignsBySameSigner(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	req := e.createRequest(t, deptAccounting)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.workflow.Sign(ctx, req.ID, accountingStaf)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrDuplicateSignature)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 2, e.auditCount(t, req))
}

func TestWorkflow_ConcurrentForwardOneWins(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	req := e.createRequest(t, deptAccounting)
	received, err := e.workflow.ApplyCommand(ctx, req.ID, domain.CommandReceive, accountingStaf, service.CommandParams{})
	require.NoError(t, err)
	observed := received.State()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, dest := range []int64{deptRegistrar, deptDean} {
		wg.Add(1)
		go func(i int, dest int64) {
			defer wg.Done()
			_, errs[i] = e.workflow.ApplyCommand(ctx, req.ID, domain.CommandForward, accountingHead, service.CommandParams{
				ToDepartmentID: ptr(dest),
				Expect:         &observed,
			})
		}(i, dest)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)

	entries, err := e.timeline.GetTimeline(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	current, err := e.workflow.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, *entries[2].ToDepartmentID, current.CurrentDepartmentID)
}

// startBarrier holds every transaction until n commands have read their start state,
// so racing commands all observe the same snapshot.
type startBarrier struct {
	*memory.Store
	mu    sync.Mutex
	n     int
	ready chan struct{}
}

func newStartBarrier(st *memory.Store, n int) *startBarrier {
	return &startBarrier{Store: st, n: n, ready: make(chan struct{})}
}

type countingRequests struct {
	port.RequestRepository
	b *startBarrier
}

func (r countingRequests) GetByID(ctx context.Context, id uuid.UUID, lock port.LockMode) (*domain.Request, error) {
	req, err := r.RequestRepository.GetByID(ctx, id, lock)
	if lock == port.LockNone {
		r.b.mu.Lock()
		r.b.n--
		if r.b.n == 0 {
			close(r.b.ready)
		}
		r.b.mu.Unlock()
	}
	return req, err
}

func (b *startBarrier) Repositories() port.Repositories {
	repos := b.Store.Repositories()
	repos.Requests = countingRequests{RequestRepository: repos.Requests, b: b}
	return repos
}

func (b *startBarrier) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	select {
	case <-b.ready:
	case <-time.After(5 * time.Second):
		return errors.New("commands never reached the barrier")
	}
	return b.Store.WithinTx(ctx, fn)
}

func TestWorkflow_ConcurrentCommandsWithoutExpect(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, e *engine, id uuid.UUID)
		cmd     domain.Command
		actor   domain.Actor
		params  []service.CommandParams
	}{
		{
			name:    "forward",
			prepare: func(t *testing.T, e *engine, id uuid.UUID) {
				_, err := e.workflow.ApplyCommand(context.Background(), id, domain.CommandReceive, accountingStaf, service.CommandParams{})
				require.NoError(t, err)
			},
			cmd:    domain.CommandForward,
			actor:  accountingHead,
			params: []service.CommandParams{{ToDepartmentID: ptr(deptRegistrar)}, {ToDepartmentID: ptr(deptDean)}},
		},
		{
			name:    "receive",
			prepare: func(*testing.T, *engine, uuid.UUID) {},
			cmd:     domain.CommandReceive,
			actor:   accountingStaf,
			params:  []service.CommandParams{{}, {}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			ctx := context.Background()
			req := e.createRequest(t, deptAccounting)
			tt.prepare(t, e, req.ID)
			before := e.auditCount(t, req)

			st := newStartBarrier(e.store, len(tt.params))
			dir := service.NewDirectory(memory.NewDepartmentRepo(e.store), memory.NewUserRepo(e.store), time.Second)
			racing := service.NewWorkflowService(st, dir, service.NewSignatureLedger(e.store), e.notes, "http://app.test", zap.NewNop())

			var wg sync.WaitGroup
			errs := make([]error, len(tt.params))
			for i, params := range tt.params {
				wg.Add(1)
				go func(i int, params service.CommandParams) {
					defer wg.Done()
					_, errs[i] = racing.ApplyCommand(ctx, req.ID, tt.cmd, tt.actor, params)
				}(i, params)
			}
			wg.Wait()

			var wins, conflicts int
			for _, err := range errs {
				switch {
				case err == nil:
					wins++
				case errors.Is(err, domain.ErrConflict):
					conflicts++
				default:
					t.Fatalf("unexpected error: %v", err)
				}
			}
			assert.Equal(t, 1, wins)
			assert.Equal(t, 1, conflicts)
			assert.Equal(t, before+1, e.auditCount(t, req))
		})
	}
}

func TestWorkflow_IdempotencyKeyBoundToCommand(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	req := e.createRequest(t, deptAccounting)

	params := service.CommandParams{IdempotencyKey: "op-7"}
	_, err := e.workflow.ApplyCommand(ctx, req.ID, domain.CommandReceive, accountingStaf, params)
	require.NoError(t, err)

	_, err = e.workflow.ApplyCommand(ctx, req.ID, domain.CommandRelease, accountingHead, params)
	assert.ErrorIs(t, err, domain.ErrValidation)
	current, err := e.workflow.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusOngoing, current.Status)
	assert.Equal(t, 2, e.auditCount(t, req))
}

func TestWorkflow_IdempotencyKeys(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	input := &service.CreateRequestInput{
		RequesterID:             requester.UserID,
		Purpose:                 "Transcript",
		DestinationDepartmentID: deptAccounting,
		IdempotencyKey:          "create-1",
	}
	first, err := e.workflow.CreateDocument(ctx, requester, input)
	require.NoError(t, err)
	second, err := e.workflow.CreateDocument(ctx, requester, input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	params := service.CommandParams{IdempotencyKey: "receive-1"}
	_, err = e.workflow.ApplyCommand(ctx, first.ID, domain.CommandReceive, accountingStaf, params)
	require.NoError(t, err)
	replay, err := e.workflow.ApplyCommand(ctx, first.ID, domain.CommandReceive, accountingStaf, params)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusOngoing, replay.Status)
	assert.Equal(t, 2, e.auditCount(t, first))

	other := e.createRequest(t, deptAccounting)
	_, err = e.workflow.ApplyCommand(ctx, other.ID, domain.CommandReceive, accountingStaf, params)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestWorkflow_ExpectMismatchConflicts(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	req := e.createRequest(t, deptAccounting)

	stale := domain.RequestState{Status: domain.RequestStatusOngoing, DepartmentID: deptAccounting}
	_, err := e.workflow.ApplyCommand(ctx, req.ID, domain.CommandRelease, accountingHead, service.CommandParams{Expect: &stale})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, e.auditCount(t, req))
}

func TestWorkflow_Delete(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	t.Run("untouched request is withdrawn and keeps its trail", func(t *testing.T) {
		req := e.createRequest(t, deptAccounting)
		require.NoError(t, e.workflow.Delete(ctx, req.ID, requester))

		_, err := e.workflow.GetRequest(ctx, req.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		entries, err := e.timeline.GetTimeline(ctx, req.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, domain.AuditDeleted, entries[1].Action)
	})

	t.Run("only the requester may withdraw", func(t *testing.T) {
		req := e.createRequest(t, deptAccounting)
		assert.ErrorIs(t, e.workflow.Delete(ctx, req.ID, accountingHead), domain.ErrUnauthorized)
	})

	t.Run("received request cannot be withdrawn", func(t *testing.T) {
		req := e.createRequest(t, deptAccounting)
		_, err := e.workflow.ApplyCommand(ctx, req.ID, domain.CommandReceive, accountingStaf, service.CommandParams{})
		require.NoError(t, err)
		assert.ErrorIs(t, e.workflow.Delete(ctx, req.ID, requester), domain.ErrInvalidTransition)
	})

	t.Run("signed request cannot be withdrawn", func(t *testing.T) {
		req := e.createRequest(t, deptAccounting)
		_, err := e.workflow.Sign(ctx, req.ID, accountingStaf)
		require.NoError(t, err)
		assert.ErrorIs(t, e.workflow.Delete(ctx, req.ID, requester), domain.ErrInvalidTransition)
	})
}

func TestWorkflow_Lists(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	a := e.createRequest(t, deptAccounting)
	e.createRequest(t, deptRegistrar)
	_, err := e.workflow.ApplyCommand(ctx, a.ID, domain.CommandReceive, accountingStaf, service.CommandParams{})
	require.NoError(t, err)

	mine, total, err := e.workflow.ListByRequester(ctx, requester, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, mine, 2)

	ongoing := domain.RequestStatusOngoing
	held, total, err := e.workflow.ListByDepartment(ctx, accountingStaf, &ongoing, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, a.ID, held[0].ID)

	bogus := domain.RequestStatus("LOST")
	_, _, err = e.workflow.ListByDepartment(ctx, accountingStaf, &bogus, 0, 10)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
