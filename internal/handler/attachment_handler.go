package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"doctrack/internal/service"
)

// AttachmentHandler handles attachment upload and download links.
type AttachmentHandler struct {
	attachments service.AttachmentService
}

// NewAttachmentHandler creates a new AttachmentHandler.
func NewAttachmentHandler(attachments service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

// Upload handles POST /api/v1/attachments
// @Summary Upload an attachment
// @Description Store a PDF or image; reference the returned key in a document's attachments.
// @Tags attachments
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Attachment (pdf, jpg, png)"
// @Success 201 {object} Response{data=service.Attachment} "Attachment stored"
// @Failure 400 {object} ErrorResponseBody "Unsupported file"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Security BearerAuth
// @Router /attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "file is required")
		return
	}
	defer file.Close()

	att, err := h.attachments.Upload(c.Request.Context(), actor, service.AttachmentUploadInput{File: file, Header: header})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, att)
}

// DownloadURL handles GET /api/v1/attachments/url
// @Summary Get a download link
// @Tags attachments
// @Produce json
// @Param key query string true "Attachment key"
// @Success 200 {object} Response{data=DownloadURLResponse} "Presigned link"
// @Failure 400 {object} ErrorResponseBody "Invalid key"
// @Security BearerAuth
// @Router /attachments/url [get]
func (h *AttachmentHandler) DownloadURL(c *gin.Context) {
	if _, ok := extractActor(c); !ok {
		return
	}
	key := c.Query("key")
	if key == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "key is required")
		return
	}

	url, err := h.attachments.DownloadURL(c.Request.Context(), key)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, DownloadURLResponse{Key: key, URL: url})
}

// Remove handles DELETE /api/v1/attachments
// @Summary Delete one of my attachments
// @Tags attachments
// @Produce json
// @Param key query string true "Attachment key"
// @Success 200 {object} Response{data=MessageResponse} "Attachment deleted"
// @Failure 403 {object} ErrorResponseBody "Not the uploader"
// @Security BearerAuth
// @Router /attachments [delete]
func (h *AttachmentHandler) Remove(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	key := c.Query("key")
	if key == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "key is required")
		return
	}

	if err := h.attachments.Remove(c.Request.Context(), actor, key); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, MessageResponse{Message: "attachment deleted"})
}
