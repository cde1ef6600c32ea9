package handler

import (
	"github.com/gin-gonic/gin"

	"doctrack/internal/service"
)

// DirectoryHandler exposes the department directory used to pick forward destinations.
type DirectoryHandler struct {
	dir *service.Directory
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(dir *service.Directory) *DirectoryHandler {
	return &DirectoryHandler{dir: dir}
}

// ListDepartments handles GET /api/v1/departments
// @Summary List departments
// @Tags directory
// @Produce json
// @Success 200 {object} Response{data=[]domain.Department} "Departments"
// @Security BearerAuth
// @Router /departments [get]
func (h *DirectoryHandler) ListDepartments(c *gin.Context) {
	if _, ok := extractActor(c); !ok {
		return
	}
	depts, err := h.dir.ListDepartments(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, depts)
}
