package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"doctrack/internal/domain"
	"doctrack/internal/port"
	"doctrack/internal/repository/memory"
	"doctrack/internal/service"
)

// Directory fixture shared by the engine tests.
const (
	deptRegistrar  int64 = 1
	deptAccounting int64 = 2
	deptDean       int64 = 3
	deptPresident  int64 = 4
)

var (
	requester      = domain.Actor{UserID: 10, Role: domain.RoleUser, DepartmentID: deptRegistrar}
	registrarHead  = domain.Actor{UserID: 11, Role: domain.RoleHead, DepartmentID: deptRegistrar}
	accountingStaf = domain.Actor{UserID: 20, Role: domain.RoleUser, DepartmentID: deptAccounting}
	accountingHead = domain.Actor{UserID: 21, Role: domain.RoleHead, DepartmentID: deptAccounting}
	dean           = domain.Actor{UserID: 30, Role: domain.RoleDean, DepartmentID: deptDean}
	president      = domain.Actor{UserID: 40, Role: domain.RolePresident, DepartmentID: deptPresident}
)

// recordingNotifier captures notifications in emission order.
type recordingNotifier struct {
	mu    sync.Mutex
	items []domain.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recordingNotifier) For(userID int64) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type engine struct {
	store    *memory.Store
	repos    port.Repositories
	workflow service.WorkflowService
	gates    service.GateService
	timeline service.TimelineService
	notes    *recordingNotifier
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	ctx := context.Background()

	st := memory.NewStore()
	depts := memory.NewDepartmentRepo(st)
	users := memory.NewUserRepo(st)
	for _, d := range []domain.Department{
		{ID: deptRegistrar, Name: "Registrar", Code: "REG"},
		{ID: deptAccounting, Name: "Accounting", Code: "ACC"},
		{ID: deptDean, Name: "Office of the Dean", Code: "DEAN"},
		{ID: deptPresident, Name: "Office of the President", Code: "OP"},
	} {
		require.NoError(t, depts.Upsert(ctx, &d))
	}
	for _, u := range []domain.User{
		{ID: requester.UserID, FullName: "Ana Cruz", Role: requester.Role, DepartmentID: requester.DepartmentID},
		{ID: registrarHead.UserID, FullName: "Rico Santos", Role: registrarHead.Role, DepartmentID: registrarHead.DepartmentID},
		{ID: accountingStaf.UserID, FullName: "Ben Reyes", Role: accountingStaf.Role, DepartmentID: accountingStaf.DepartmentID},
		{ID: accountingHead.UserID, FullName: "Lea Tan", Role: accountingHead.Role, DepartmentID: accountingHead.DepartmentID},
		{ID: dean.UserID, FullName: "Dean Ramos", Role: dean.Role, DepartmentID: dean.DepartmentID},
		{ID: president.UserID, FullName: "Pres Garcia", Role: president.Role, DepartmentID: president.DepartmentID},
	} {
		require.NoError(t, users.Upsert(ctx, &u))
	}

	dir := service.NewDirectory(depts, users, time.Second)
	ledger := service.NewSignatureLedger(st)
	notes := &recordingNotifier{}
	log := zap.NewNop()
	return &engine{
		store:    st,
		repos:    st.Repositories(),
		workflow: service.NewWorkflowService(st, dir, ledger, notes, "http://app.test", log),
		gates:    service.NewGateService(st, dir, ledger, notes, "http://app.test", log),
		timeline: service.NewTimelineService(st, dir, 4),
		notes:    notes,
	}
}

func (e *engine) createRequest(t *testing.T, dest int64) *domain.Request {
	t.Helper()
	req, err := e.workflow.CreateDocument(context.Background(), requester, &service.CreateRequestInput{
		RequesterID:             requester.UserID,
		Purpose:                 "Certificate of enrollment",
		DestinationDepartmentID: dest,
	})
	require.NoError(t, err)
	return req
}

func (e *engine) auditCount(t *testing.T, req *domain.Request) int {
	t.Helper()
	n, err := e.repos.Audit.Count(context.Background(), req.ID)
	require.NoError(t, err)
	return n
}

func details(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func ptr[T any](v T) *T { return &v }
