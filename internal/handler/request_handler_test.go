package handler_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"doctrack/internal/domain"
	"doctrack/internal/handler"
	"doctrack/internal/service"
	"doctrack/mocks"
)

func newRequestHandler() (*handler.RequestHandler, *mocks.MockWorkflowService) {
	svc := new(mocks.MockWorkflowService)
	return handler.NewRequestHandler(svc), svc
}

func TestRequestHandler_Create_Success(t *testing.T) {
	h, svc := newRequestHandler()

	created := &domain.Request{ID: uuid.New(), HumanCode: "REQ-1", Status: domain.RequestStatusToReceive}
	svc.On("CreateDocument", mock.Anything, staff, &service.CreateRequestInput{
		RequesterID:             staff.UserID,
		Purpose:                 "Transcript",
		DestinationDepartmentID: 1,
		CreatedBy:               staff.UserID,
		IdempotencyKey:          "k-1",
	}).Return(created, nil)

	c, w := newContext(http.MethodPost, "/api/v1/requests", handler.CreateRequestRequest{
		Purpose:                 "Transcript",
		DestinationDepartmentID: 1,
	})
	c.Request.Header.Set("Idempotency-Key", "k-1")
	setActor(c, staff)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode(t, w).Success)
	svc.AssertExpectations(t)
}

func TestRequestHandler_Create_MissingFields(t *testing.T) {
	h, svc := newRequestHandler()

	c, w := newContext(http.MethodPost, "/api/v1/requests", map[string]any{"purpose": "x"})
	setActor(c, staff)

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decode(t, w).Error.Code)
	svc.AssertNotCalled(t, "CreateDocument")
}

func TestRequestHandler_Create_NoActor(t *testing.T) {
	h, _ := newRequestHandler()

	c, w := newContext(http.MethodPost, "/api/v1/requests", handler.CreateRequestRequest{Purpose: "x", DestinationDepartmentID: 1})

	h.Create(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestHandler_Command(t *testing.T) {
	id := uuid.New()
	to := int64(3)

	tests := []struct {
		name       string
		body       any
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "empty body", wantStatus: http.StatusOK},
		{
			name:       "forward with expectation",
			body:       handler.CommandRequest{ToDepartmentID: &to, Expect: &handler.ExpectedState{Status: domain.RequestStatusOngoing, CurrentDepartmentID: 2}},
			wantStatus: http.StatusOK,
		},
		{name: "illegal", err: domain.ErrInvalidTransition, wantStatus: http.StatusConflict, wantCode: "INVALID_TRANSITION"},
		{name: "not permitted", err: domain.ErrUnauthorized, wantStatus: http.StatusForbidden, wantCode: "UNAUTHORIZED"},
		{name: "raced", err: domain.ErrConflict, wantStatus: http.StatusConflict, wantCode: "CONFLICT"},
		{name: "unknown department", err: domain.ErrDepartmentNotFound, wantStatus: http.StatusNotFound, wantCode: "DEPARTMENT_NOT_FOUND"},
		{name: "store down", err: domain.ErrUnavailable, wantStatus: http.StatusServiceUnavailable, wantCode: "UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newRequestHandler()
			if tt.err != nil {
				svc.On("ApplyCommand", mock.Anything, id, domain.CommandForward, staff, mock.Anything).Return(nil, tt.err)
			} else {
				svc.On("ApplyCommand", mock.Anything, id, domain.CommandForward, staff, mock.AnythingOfType("service.CommandParams")).
					Return(&domain.Request{ID: id, Status: domain.RequestStatusOngoing}, nil)
			}

			c, w := newContext(http.MethodPost, "/api/v1/requests/"+id.String()+"/forward", tt.body)
			c.Params = gin.Params{{Key: "id", Value: id.String()}}
			setActor(c, staff)

			h.Command(domain.CommandForward)(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decode(t, w).Error.Code)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestRequestHandler_Command_PassesParams(t *testing.T) {
	h, svc := newRequestHandler()
	id := uuid.New()
	to := int64(3)

	svc.On("ApplyCommand", mock.Anything, id, domain.CommandForward, staff, service.CommandParams{
		ToDepartmentID: &to,
		Remarks:        "For signature",
		Expect:         &domain.RequestState{Status: domain.RequestStatusOngoing, DepartmentID: 2},
		IdempotencyKey: "fwd-1",
	}).Return(&domain.Request{ID: id}, nil)

	c, w := newContext(http.MethodPost, "/", handler.CommandRequest{
		ToDepartmentID: &to,
		Remarks:        "For signature",
		Expect:         &handler.ExpectedState{Status: domain.RequestStatusOngoing, CurrentDepartmentID: 2},
	})
	c.Request.Header.Set("Idempotency-Key", "fwd-1")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	setActor(c, staff)

	h.Command(domain.CommandForward)(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestRequestHandler_Command_InvalidID(t *testing.T) {
	h, _ := newRequestHandler()

	c, w := newContext(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	setActor(c, staff)

	h.Command(domain.CommandReceive)(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decode(t, w).Error.Code)
}

func TestRequestHandler_Sign_Duplicate(t *testing.T) {
	h, svc := newRequestHandler()
	id := uuid.New()
	svc.On("Sign", mock.Anything, id, staff).Return(nil, domain.ErrDuplicateSignature)

	c, w := newContext(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	setActor(c, staff)

	h.Sign(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_SIGNATURE", decode(t, w).Error.Code)
}

func TestRequestHandler_ListDepartment(t *testing.T) {
	h, svc := newRequestHandler()
	status := domain.RequestStatusOngoing
	svc.On("ListByDepartment", mock.Anything, staff, &status, 0, 20).
		Return([]domain.Request{{ID: uuid.New()}}, 1, nil)

	c, w := newContext(http.MethodGet, "/api/v1/requests/department?status=ONGOING&limit=500", nil)
	setActor(c, staff)

	h.ListDepartment(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, 1, resp.Meta.Total)
	assert.Equal(t, 20, resp.Meta.Limit)
	svc.AssertExpectations(t)
}

func TestRequestHandler_Delete(t *testing.T) {
	h, svc := newRequestHandler()
	id := uuid.New()
	svc.On("Delete", mock.Anything, id, staff).Return(nil)

	c, w := newContext(http.MethodDelete, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	setActor(c, staff)

	h.Delete(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "request withdrawn"))
}
