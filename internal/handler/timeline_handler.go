package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"doctrack/internal/domain"
	"doctrack/internal/export"
	"doctrack/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TimelineHandler handles audit timeline and tracker export endpoints.
type TimelineHandler struct {
	timeline service.TimelineService
}

// NewTimelineHandler creates a new TimelineHandler.
func NewTimelineHandler(timeline service.TimelineService) *TimelineHandler {
	return &TimelineHandler{timeline: timeline}
}

// Document handles GET /api/v1/requests/:id/timeline and GET /api/v1/gate-documents/:id/timeline
// @Summary Get a document timeline
// @Description Audit entries of one document in chronological order, with names resolved.
// @Tags timeline
// @Produce json
// @Param id path string true "Document ID (UUID)"
// @Success 200 {object} Response{data=[]domain.TimelineEntry} "Timeline"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Security BearerAuth
// @Router /requests/{id}/timeline [get]
// @Router /gate-documents/{id}/timeline [get]
func (h *TimelineHandler) Document(c *gin.Context) {
	if _, ok := extractActor(c); !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	entries, err := h.timeline.TimelineAcrossDocuments(c.Request.Context(), []uuid.UUID{id})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, entries)
}

// Mine handles GET /api/v1/timeline
// @Summary Get my tracker
// @Description Merged timeline of every document the caller created or submitted.
// @Tags timeline
// @Produce json
// @Success 200 {object} Response{data=[]domain.TimelineEntry} "Merged timeline"
// @Security BearerAuth
// @Router /timeline [get]
func (h *TimelineHandler) Mine(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}

	entries, err := h.timeline.GetTimelineForActor(c.Request.Context(), actor.UserID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, entries)
}

// Export handles GET /api/v1/timeline/export
// @Summary Export a tracker
// @Description Download timelines as CSV or XLSX. Without document_id the caller's own tracker is exported.
// @Tags timeline
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "Export format" Enums(csv, xlsx) default(csv)
// @Param document_id query []string false "Document IDs to include" collectionFormat(multi)
// @Success 200 {file} file "Tracker file"
// @Failure 400 {object} ErrorResponseBody "Invalid format or document ID"
// @Security BearerAuth
// @Router /timeline/export [get]
func (h *TimelineHandler) Export(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "format must be csv or xlsx")
		return
	}

	var (
		entries []domain.TimelineEntry
		err     error
		name    = "tracker"
	)
	if raw := c.QueryArray("document_id"); len(raw) > 0 {
		ids := make([]uuid.UUID, 0, len(raw))
		for _, r := range raw {
			id, perr := uuid.Parse(r)
			if perr != nil {
				RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document_id")
				return
			}
			ids = append(ids, id)
		}
		entries, err = h.timeline.TimelineAcrossDocuments(c.Request.Context(), ids)
		if err == nil && len(ids) == 1 && len(entries) > 0 {
			name = entries[0].DocumentCode
		}
	} else {
		entries, err = h.timeline.GetTimelineForActor(c.Request.Context(), actor.UserID)
	}
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename(name, format, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if format == "xlsx" {
		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, entries); err != nil {
			HandleError(c, err)
			return
		}
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if _, err := c.Writer.Write(export.BOM); err != nil {
		_ = c.Error(err)
		return
	}
	w := export.NewCSVWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		_ = c.Error(err)
		return
	}
	if err := w.WriteEntries(entries); err != nil {
		_ = c.Error(err)
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = c.Error(err)
	}
}
