package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"doctrack/internal/domain"
	"doctrack/internal/service"
)

// GateHandler handles clearance, pass slip, travel order and accomplishment report endpoints.
type GateHandler struct {
	gates service.GateService
}

// NewGateHandler creates a new GateHandler.
func NewGateHandler(gates service.GateService) *GateHandler {
	return &GateHandler{gates: gates}
}

func kindQuery(c *gin.Context) *domain.DocumentKind {
	raw := c.Query("kind")
	if raw == "" {
		return nil
	}
	k := domain.DocumentKind(raw)
	return &k
}

// Submit handles POST /api/v1/gate-documents
// @Summary Submit a gate document
// @Description Submit a clearance, pass slip, travel order or accomplishment report. Details are validated per kind.
// @Tags gate-documents
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client idempotency key"
// @Param request body SubmitGateRequest true "Document details"
// @Success 201 {object} Response{data=domain.GateDocument} "Document submitted"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Security BearerAuth
// @Router /gate-documents [post]
func (h *GateHandler) Submit(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}

	var req SubmitGateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "kind, purpose and details are required")
		return
	}

	doc, err := h.gates.Submit(c.Request.Context(), actor, &service.SubmitGateInput{
		Kind:              req.Kind,
		Purpose:           req.Purpose,
		Details:           req.Details,
		Attachments:       req.Attachments,
		RequiredSignerIDs: req.RequiredSignerIDs,
		IdempotencyKey:    idempotencyKey(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, doc)
}

// GetByID handles GET /api/v1/gate-documents/:id
// @Summary Get gate document by ID
// @Tags gate-documents
// @Produce json
// @Param id path string true "Document ID (UUID)"
// @Success 200 {object} Response{data=domain.GateDocument} "Document details"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Security BearerAuth
// @Router /gate-documents/{id} [get]
func (h *GateHandler) GetByID(c *gin.Context) {
	if _, ok := extractActor(c); !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	doc, err := h.gates.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}

// ListMine handles GET /api/v1/gate-documents
// @Summary List my gate documents
// @Tags gate-documents
// @Produce json
// @Param kind query string false "Filter by kind" Enums(CLEARANCE, PASS_SLIP, TRAVEL_ORDER, ACCOMPLISHMENT_REPORT)
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.GateDocument,meta=PagMeta} "Documents submitted by the caller"
// @Security BearerAuth
// @Router /gate-documents [get]
func (h *GateHandler) ListMine(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	offset, limit := parsePagination(c)

	docs, total, err := h.gates.ListMine(c.Request.Context(), actor, kindQuery(c), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, docs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// ListAwaiting handles GET /api/v1/gate-documents/awaiting
// @Summary List gate documents awaiting my decision
// @Description Dean sees the dean queue, president sees documents approved by the dean.
// @Tags gate-documents
// @Produce json
// @Param kind query string false "Filter by kind" Enums(CLEARANCE, PASS_SLIP, TRAVEL_ORDER, ACCOMPLISHMENT_REPORT)
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.GateDocument,meta=PagMeta} "Queued documents"
// @Failure 403 {object} ErrorResponseBody "Role has no approval queue"
// @Security BearerAuth
// @Router /gate-documents/awaiting [get]
func (h *GateHandler) ListAwaiting(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	offset, limit := parsePagination(c)

	docs, total, err := h.gates.ListAwaiting(c.Request.Context(), actor, kindQuery(c), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, docs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Decide returns the handler for POST /api/v1/gate-documents/:id/{approve,reject}.
// @Summary Approve or reject a gate document
// @Tags gate-documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID (UUID)"
// @Param request body DecisionRequest false "Optional remarks"
// @Success 200 {object} Response{data=domain.GateDocument} "Updated document"
// @Failure 403 {object} ErrorResponseBody "Role may not decide"
// @Failure 409 {object} ErrorResponseBody "Document is not at the caller's stage"
// @Security BearerAuth
// @Router /gate-documents/{id}/approve [post]
// @Router /gate-documents/{id}/reject [post]
func (h *GateHandler) Decide(cmd domain.Command) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := extractActor(c)
		if !ok {
			return
		}
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		var body DecisionRequest
		if err := bindOptionalJSON(c, &body); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "malformed decision body")
			return
		}

		doc, err := h.gates.Decide(c.Request.Context(), id, cmd, actor, body.Remarks)
		if err != nil {
			HandleError(c, err)
			return
		}
		RespondOK(c, doc)
	}
}

// Sign handles POST /api/v1/gate-documents/:id/sign
// @Summary Sign a gate document
// @Description Signing the last required signer of an accomplishment report routes it to the dean.
// @Tags gate-documents
// @Produce json
// @Param id path string true "Document ID (UUID)"
// @Success 201 {object} Response{data=domain.Signature} "Signature recorded"
// @Failure 409 {object} ErrorResponseBody "Already signed or not signable"
// @Security BearerAuth
// @Router /gate-documents/{id}/sign [post]
func (h *GateHandler) Sign(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	sig, err := h.gates.Sign(c.Request.Context(), id, actor)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, sig)
}

// Update handles PUT /api/v1/gate-documents/:id
// @Summary Update a pending gate document
// @Tags gate-documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID (UUID)"
// @Param request body UpdateGateRequest true "Replacement content"
// @Success 200 {object} Response{data=domain.GateDocument} "Updated document"
// @Failure 403 {object} ErrorResponseBody "Not the submitter"
// @Failure 409 {object} ErrorResponseBody "Document is no longer pending"
// @Security BearerAuth
// @Router /gate-documents/{id} [put]
func (h *GateHandler) Update(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateGateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "purpose and details are required")
		return
	}

	doc, err := h.gates.Update(c.Request.Context(), id, actor, &service.UpdateGateInput{
		Purpose:           req.Purpose,
		Details:           req.Details,
		Attachments:       req.Attachments,
		RequiredSignerIDs: req.RequiredSignerIDs,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}

// Delete handles DELETE /api/v1/gate-documents/:id
// @Summary Withdraw a pending, unsigned gate document
// @Tags gate-documents
// @Produce json
// @Param id path string true "Document ID (UUID)"
// @Success 200 {object} Response{data=MessageResponse} "Document withdrawn"
// @Failure 403 {object} ErrorResponseBody "Not the submitter"
// @Failure 409 {object} ErrorResponseBody "Document already signed or decided"
// @Security BearerAuth
// @Router /gate-documents/{id} [delete]
func (h *GateHandler) Delete(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.gates.Delete(c.Request.Context(), id, actor); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, MessageResponse{Message: "document withdrawn"})
}
