package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"doctrack/internal/config"
	_ "doctrack/internal/docs"
	"doctrack/internal/domain"
	"doctrack/internal/handler"
	"doctrack/internal/middleware"
	"doctrack/internal/service"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Health        *handler.HealthHandler
	Requests      *handler.RequestHandler
	Gates         *handler.GateHandler
	Timeline      *handler.TimelineHandler
	Notifications *handler.NotificationHandler
	Directory     *handler.DirectoryHandler
	Stats         *handler.StatsHandler
	// Attachments is nil when object storage is not configured.
	Attachments *handler.AttachmentHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(cfg *config.Config, log *zap.Logger, verifier service.TokenVerifier, h Handlers) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	if cfg.Server.Environment != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(verifier))

	// Canonical request routing
	requests := v1.Group("/requests")
	requests.POST("", h.Requests.Create)
	requests.GET("", h.Requests.ListMine)
	requests.GET("/department", h.Requests.ListDepartment)
	requests.GET("/:id", h.Requests.GetByID)
	requests.DELETE("/:id", h.Requests.Delete)
	requests.GET("/:id/timeline", h.Timeline.Document)
	requests.POST("/:id/receive", h.Requests.Command(domain.CommandReceive))
	requests.POST("/:id/forward", h.Requests.Command(domain.CommandForward))
	requests.POST("/:id/release", h.Requests.Command(domain.CommandRelease))
	requests.POST("/:id/complete", h.Requests.Command(domain.CommandComplete))
	requests.POST("/:id/deny", h.Requests.Command(domain.CommandDeny))
	requests.POST("/:id/sign", h.Requests.Sign)

	// Dean and president gated documents
	gates := v1.Group("/gate-documents")
	gates.POST("", h.Gates.Submit)
	gates.GET("", h.Gates.ListMine)
	gates.GET("/awaiting", middleware.RequireRole(domain.RoleDean, domain.RolePresident), h.Gates.ListAwaiting)
	gates.GET("/:id", h.Gates.GetByID)
	gates.PUT("/:id", h.Gates.Update)
	gates.DELETE("/:id", h.Gates.Delete)
	gates.GET("/:id/timeline", h.Timeline.Document)
	gates.POST("/:id/sign", h.Gates.Sign)
	gates.POST("/:id/approve", middleware.RequireRole(domain.RoleDean, domain.RolePresident), h.Gates.Decide(domain.CommandApprove))
	gates.POST("/:id/reject", middleware.RequireRole(domain.RoleDean, domain.RolePresident), h.Gates.Decide(domain.CommandReject))

	// Tracker
	v1.GET("/timeline", h.Timeline.Mine)
	v1.GET("/timeline/export", h.Timeline.Export)

	v1.GET("/notifications", h.Notifications.List)
	v1.POST("/notifications/:id/read", h.Notifications.MarkRead)

	v1.GET("/departments", h.Directory.ListDepartments)
	v1.GET("/stats", h.Stats.GetStats)

	if h.Attachments != nil {
		attachments := v1.Group("/attachments")
		attachments.POST("", h.Attachments.Upload)
		attachments.GET("/url", h.Attachments.DownloadURL)
		attachments.DELETE("", h.Attachments.Remove)
	}

	return r
}
