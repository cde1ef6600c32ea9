package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"doctrack/internal/domain"
	"doctrack/internal/observability/metrics"
	"doctrack/internal/port"
)

// Config holds dispatcher settings.
type Config struct {
	Workers        int
	QueueSize      int
	DeliverTimeout time.Duration
}

// Dispatcher fans notifications out to every sink from a fixed worker pool.
// Notify never blocks; a full queue drops the notification.
type Dispatcher struct {
	sinks   []port.NotificationSink
	cfg     Config
	log     *zap.Logger
	queue   chan domain.Notification
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	nowFunc func() time.Time
}

// NewDispatcher creates a Dispatcher and starts its workers.
func NewDispatcher(cfg Config, log *zap.Logger, sinks ...port.NotificationSink) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.DeliverTimeout <= 0 {
		cfg.DeliverTimeout = 5 * time.Second
	}
	d := &Dispatcher{
		sinks:   sinks,
		cfg:     cfg,
		log:     log,
		queue:   make(chan domain.Notification, cfg.QueueSize),
		nowFunc: time.Now,
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	log.Info("notification dispatcher started",
		zap.Int("workers", cfg.Workers),
		zap.Int("queue_size", cfg.QueueSize),
		zap.Int("sinks", len(sinks)))
	return d
}

// Notify implements port.Notifier.
func (d *Dispatcher) Notify(_ context.Context, n domain.Notification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = d.nowFunc().UTC()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(n, "closed")
		return
	}
	select {
	case d.queue <- n:
		metrics.NotificationQueueDepth.Inc()
	default:
		d.drop(n, "queue full")
	}
}

func (d *Dispatcher) drop(n domain.Notification, reason string) {
	metrics.NotificationsTotal.WithLabelValues("queue", "dropped").Inc()
	d.log.Warn("notification dropped",
		zap.String("reason", reason),
		zap.Int64("user_id", n.UserID),
		zap.String("kind", string(n.Kind)))
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for n := range d.queue {
		metrics.NotificationQueueDepth.Dec()
		for _, sink := range d.sinks {
			d.deliver(sink, n)
		}
	}
}

// deliver runs one sink with its own deadline, detached from the request that produced n.
func (d *Dispatcher) deliver(sink port.NotificationSink, n domain.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.DeliverTimeout)
	defer cancel()

	if err := sink.Deliver(ctx, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues(sink.Name(), "error").Inc()
		d.log.Warn("notification delivery failed",
			zap.String("sink", sink.Name()),
			zap.String("notification_id", n.ID.String()),
			zap.Int64("user_id", n.UserID),
			zap.Error(err))
		return
	}
	metrics.NotificationsTotal.WithLabelValues(sink.Name(), "ok").Inc()
}

// Close stops accepting notifications and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Info("notification dispatcher drained")
}
