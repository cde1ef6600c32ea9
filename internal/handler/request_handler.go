package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"doctrack/internal/domain"
	"doctrack/internal/service"
)

// RequestHandler handles canonical request endpoints.
type RequestHandler struct {
	workflow service.WorkflowService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(workflow service.WorkflowService) *RequestHandler {
	return &RequestHandler{workflow: workflow}
}

// Create handles POST /api/v1/requests
// @Summary Create a request
// @Description Create a request addressed to a destination department. It starts in TO_RECEIVE.
// @Tags requests
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client idempotency key"
// @Param request body CreateRequestRequest true "Request details"
// @Success 201 {object} Response{data=domain.Request} "Request created"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 401 {object} ErrorResponseBody "Unauthenticated"
// @Failure 404 {object} ErrorResponseBody "Department not found"
// @Security BearerAuth
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}

	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "purpose and destination_department_id are required")
		return
	}
	requesterID := req.RequesterID
	if requesterID == 0 {
		requesterID = actor.UserID
	}

	created, err := h.workflow.CreateDocument(c.Request.Context(), actor, &service.CreateRequestInput{
		RequesterID:             requesterID,
		Purpose:                 req.Purpose,
		DestinationDepartmentID: req.DestinationDepartmentID,
		CreatedBy:               actor.UserID,
		Attachments:             req.Attachments,
		IdempotencyKey:          idempotencyKey(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, created)
}

// GetByID handles GET /api/v1/requests/:id
// @Summary Get request by ID
// @Tags requests
// @Produce json
// @Param id path string true "Request ID (UUID)"
// @Success 200 {object} Response{data=domain.Request} "Request details"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 404 {object} ErrorResponseBody "Request not found"
// @Security BearerAuth
// @Router /requests/{id} [get]
func (h *RequestHandler) GetByID(c *gin.Context) {
	if _, ok := extractActor(c); !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	req, err := h.workflow.GetRequest(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, req)
}

// ListMine handles GET /api/v1/requests
// @Summary List my requests
// @Tags requests
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.Request,meta=PagMeta} "Requests filed by the caller"
// @Security BearerAuth
// @Router /requests [get]
func (h *RequestHandler) ListMine(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	offset, limit := parsePagination(c)

	reqs, total, err := h.workflow.ListByRequester(c.Request.Context(), actor, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, reqs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// ListDepartment handles GET /api/v1/requests/department
// @Summary List requests held by my department
// @Tags requests
// @Produce json
// @Param status query string false "Filter by status" Enums(TO_RECEIVE, ONGOING, TO_RELEASE, COMPLETED, DECLINED)
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.Request,meta=PagMeta} "Requests in the caller's department"
// @Failure 400 {object} ErrorResponseBody "Invalid status"
// @Security BearerAuth
// @Router /requests/department [get]
func (h *RequestHandler) ListDepartment(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	offset, limit := parsePagination(c)

	var status *domain.RequestStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.RequestStatus(raw)
		status = &s
	}

	reqs, total, err := h.workflow.ListByDepartment(c.Request.Context(), actor, status, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, reqs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Command returns the handler for POST /api/v1/requests/:id/{receive,forward,release,complete,deny}.
// @Summary Apply a routing command
// @Description Receive, forward, release, complete or deny a request. Forward without to_department_id returns it to sender.
// @Tags requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID (UUID)"
// @Param Idempotency-Key header string false "Client idempotency key"
// @Param request body CommandRequest false "Command arguments"
// @Success 200 {object} Response{data=domain.Request} "Updated request"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 403 {object} ErrorResponseBody "Not permitted"
// @Failure 404 {object} ErrorResponseBody "Request or department not found"
// @Failure 409 {object} ErrorResponseBody "Illegal transition or concurrent modification"
// @Security BearerAuth
// @Router /requests/{id}/receive [post]
// @Router /requests/{id}/forward [post]
// @Router /requests/{id}/release [post]
// @Router /requests/{id}/complete [post]
// @Router /requests/{id}/deny [post]
func (h *RequestHandler) Command(cmd domain.Command) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := extractActor(c)
		if !ok {
			return
		}
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		var body CommandRequest
		if err := bindOptionalJSON(c, &body); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "malformed command body")
			return
		}
		params := service.CommandParams{
			ToDepartmentID: body.ToDepartmentID,
			Remarks:        body.Remarks,
			IdempotencyKey: idempotencyKey(c),
		}
		if body.Expect != nil {
			params.Expect = &domain.RequestState{
				Status:       body.Expect.Status,
				DepartmentID: body.Expect.CurrentDepartmentID,
			}
		}

		req, err := h.workflow.ApplyCommand(c.Request.Context(), id, cmd, actor, params)
		if err != nil {
			HandleError(c, err)
			return
		}
		RespondOK(c, req)
	}
}

// Sign handles POST /api/v1/requests/:id/sign
// @Summary Sign a request
// @Tags requests
// @Produce json
// @Param id path string true "Request ID (UUID)"
// @Success 201 {object} Response{data=domain.Signature} "Signature recorded"
// @Failure 409 {object} ErrorResponseBody "Already signed or not signable"
// @Security BearerAuth
// @Router /requests/{id}/sign [post]
func (h *RequestHandler) Sign(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	sig, err := h.workflow.Sign(c.Request.Context(), id, actor)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, sig)
}

// Delete handles DELETE /api/v1/requests/:id
// @Summary Withdraw a request
// @Description Only the requester or creator may withdraw, and only before anyone has acted on it.
// @Tags requests
// @Produce json
// @Param id path string true "Request ID (UUID)"
// @Success 200 {object} Response{data=MessageResponse} "Request withdrawn"
// @Failure 403 {object} ErrorResponseBody "Not the requester"
// @Failure 409 {object} ErrorResponseBody "Request already acted on"
// @Security BearerAuth
// @Router /requests/{id} [delete]
func (h *RequestHandler) Delete(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.workflow.Delete(c.Request.Context(), id, actor); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, MessageResponse{Message: "request withdrawn"})
}
