//go:generate swag init -g cmd/server/main.go -o internal/docs -d ../..

// @title Document Tracking API
// @version 1.0
// @description Request routing, dean and president approvals, signatures and audit timelines.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"doctrack/internal/config"
	"doctrack/internal/email/noop"
	"doctrack/internal/email/ses"
	"doctrack/internal/handler"
	"doctrack/internal/logger"
	"doctrack/internal/notify"
	"doctrack/internal/observability/metrics"
	"doctrack/internal/port"
	"doctrack/internal/repository/memory"
	"doctrack/internal/repository/postgres"
	"doctrack/internal/router"
	"doctrack/internal/seed"
	"doctrack/internal/service"
	s3storage "doctrack/internal/storage/s3"
)

const shutdownTimeout = 15 * time.Second

// inbox is the notification store that is also the in-app delivery sink.
type inbox interface {
	port.NotificationRepository
	port.NotificationSink
}

// backend is the set of stores selected by the store driver.
type backend struct {
	tx          port.TxManager
	departments port.DepartmentRepository
	users       port.UserRepository
	stats       port.StatsRepository
	inbox       inbox
	pinger      handler.Pinger
	close       func() error
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zlog, err := logger.New(cfg.Server.Environment, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		metrics.MustRegister(cfg.Metrics.Service)
	}

	be, err := openBackend(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer func() { _ = be.close() }()

	// Notification fan-out
	sinks, err := buildSinks(ctx, cfg, be, zlog)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(notify.Config{
		Workers:        cfg.Notify.Workers,
		QueueSize:      cfg.Notify.QueueSize,
		DeliverTimeout: cfg.Notify.DeliverTimeout,
	}, zlog, sinks...)

	// Initialize services
	dir := service.NewDirectory(be.departments, be.users, cfg.Lookup.Timeout)
	ledger := service.NewSignatureLedger(be.tx)
	workflowSvc := service.NewWorkflowService(be.tx, dir, ledger, dispatcher, cfg.Notify.LinkURL, zlog)
	gateSvc := service.NewGateService(be.tx, dir, ledger, dispatcher, cfg.Notify.LinkURL, zlog)
	timelineSvc := service.NewTimelineService(be.tx, dir, cfg.Lookup.Concurrency)
	notificationSvc := service.NewNotificationService(be.inbox)
	statsSvc := service.NewStatsService(be.stats)
	verifier := service.NewTokenVerifier(&cfg.JWT)

	handlers := router.Handlers{
		Health:        handler.NewHealthHandler(be.pinger),
		Requests:      handler.NewRequestHandler(workflowSvc),
		Gates:         handler.NewGateHandler(gateSvc),
		Timeline:      handler.NewTimelineHandler(timelineSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Directory:     handler.NewDirectoryHandler(dir),
		Stats:         handler.NewStatsHandler(statsSvc),
	}

	// Attachments are optional; without a bucket the routes are not mounted.
	if cfg.S3.Bucket != "" {
		objects, err := s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		handlers.Attachments = handler.NewAttachmentHandler(service.NewAttachmentService(objects, &cfg.S3, zlog))
	} else {
		zlog.Warn("s3 bucket not configured, attachment routes disabled")
	}

	r := router.Setup(cfg, zlog, verifier, handlers)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("store", cfg.Store.Driver),
			zap.String("environment", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		dispatcher.Close()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("http shutdown", zap.Error(err))
	}
	// Handlers are drained, so no new notifications can arrive.
	dispatcher.Close()
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (*backend, error) {
	if cfg.Store.Driver == "memory" {
		st := memory.NewStore()
		be := &backend{
			tx:          st,
			departments: memory.NewDepartmentRepo(st),
			users:       memory.NewUserRepo(st),
			stats:       memory.NewStatsRepo(st),
			inbox:       memory.NewNotificationRepo(st),
			close:       func() error { return nil },
		}
		if cfg.Store.SeedFile != "" {
			d, err := seed.ReadFile(cfg.Store.SeedFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read seed file: %w", err)
			}
			if err := seed.Apply(ctx, d, be.departments, be.users); err != nil {
				return nil, fmt.Errorf("failed to seed directory: %w", err)
			}
			zlog.Info("directory seeded",
				zap.Int("departments", len(d.Departments)),
				zap.Int("users", len(d.Users)))
		} else {
			zlog.Warn("memory store started without a seed file, the directory is empty")
		}
		return be, nil
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &backend{
		tx:          postgres.NewTxManager(db),
		departments: postgres.NewDepartmentRepo(db),
		users:       postgres.NewUserRepo(db),
		stats:       postgres.NewStatsRepo(db),
		inbox:       postgres.NewNotificationRepo(db),
		pinger:      db,
		close:       db.Close,
	}, nil
}

func buildSinks(ctx context.Context, cfg *config.Config, be *backend, zlog *zap.Logger) ([]port.NotificationSink, error) {
	var sinks []port.NotificationSink
	if cfg.Notify.HasSink("inbox") {
		sinks = append(sinks, be.inbox)
	}
	if cfg.Notify.HasSink("email") {
		var sender port.EmailSender
		switch cfg.Email.Provider {
		case "ses":
			s, err := ses.NewSESSender(ctx, cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize SES sender: %w", err)
			}
			sender = s
		default:
			sender = noop.NewNoopSender(zlog)
		}
		sinks = append(sinks, notify.NewEmailSink(be.users, sender))
	}
	if cfg.Notify.HasSink("log") {
		sinks = append(sinks, notify.NewLogSink(zlog))
	}
	return sinks, nil
}
