package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"doctrack/internal/domain"
	"doctrack/internal/handler"
	"doctrack/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	staff = domain.Actor{UserID: 20, Role: domain.RoleUser, DepartmentID: 2}
	dean  = domain.Actor{UserID: 30, Role: domain.RoleDean, DepartmentID: 3}
)

func setActor(c *gin.Context, actor domain.Actor) {
	c.Set(middleware.ContextKeyActor, actor)
}

// newContext builds a test context for method and target. A nil body sends no payload.
func newContext(method, target string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if body == nil {
		c.Request = httptest.NewRequest(method, target, http.NoBody)
		return c, w
	}
	raw, _ := json.Marshal(body)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
