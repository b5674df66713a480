package worker

import (
	"context"
	"log/slog"
	"time"

	audit "ledgerguard/pkg/platform/audit"
)

// Metrics records worker outcomes. Nil-safe.
type Metrics interface {
	IncPersisted()
	IncPersistFailures()
}

// Worker consumes audit events from a channel and hands them to a sink.
// A failing sink is logged and counted; the worker keeps draining.
type Worker struct {
	sink    audit.Sink
	inbox   <-chan audit.Event
	logger  *slog.Logger
	metrics Metrics
	// drainTimeout bounds the flush of buffered events after ctx is done.
	drainTimeout time.Duration
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithMetrics(m Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

func WithDrainTimeout(d time.Duration) Option {
	return func(w *Worker) { w.drainTimeout = d }
}

func NewWorker(sink audit.Sink, inbox <-chan audit.Event, opts ...Option) *Worker {
	w := &Worker{
		sink:         sink,
		inbox:        inbox,
		logger:       slog.Default(),
		drainTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes events until ctx is done, then flushes what is already buffered.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.persist(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), w.drainTimeout)
	defer cancel()
	for {
		select {
		case event := <-w.inbox:
			w.persist(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) persist(ctx context.Context, event audit.Event) {
	if err := w.sink.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "failed to persist audit event",
			"event_id", event.ID,
			"action", event.Action,
			"request_id", event.RequestID,
			"error", err,
		)
		if w.metrics != nil {
			w.metrics.IncPersistFailures()
		}
		return
	}
	if w.metrics != nil {
		w.metrics.IncPersisted()
	}
}
