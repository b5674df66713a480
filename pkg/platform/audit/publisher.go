package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Sink accepts finished events. Stores, brokers and queues all implement it.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a queryable Sink.
type Store interface {
	Sink
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
	ListByActions(ctx context.Context, actions []string, limit int) ([]Event, error)
}

// Publisher stamps events and hands them to a sink. It is append-only so tests
// can swap sinks easily.
type Publisher struct {
	sink Sink
}

func NewPublisher(sink Sink) *Publisher {
	return &Publisher{sink: sink}
}

// Emit fills ID, timestamp and category when unset, then appends.
func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	if base.Category == "" {
		base.Category = AuditEvent(base.Action).Category()
	}
	return p.sink.Append(ctx, base)
}

// Fanout appends every event to all sinks concurrently. The first failure is
// returned after every sink has been tried.
type Fanout struct {
	sinks []Sink
}

func NewFanout(sinks ...Sink) *Fanout {
	out := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Fanout{sinks: out}
}

func (f *Fanout) Append(ctx context.Context, event Event) error {
	var g errgroup.Group
	for _, sink := range f.sinks {
		g.Go(func() error {
			return sink.Append(ctx, event)
		})
	}
	return g.Wait()
}

// ErrQueueFull is returned by Queue.Append when the buffer has no room.
var ErrQueueFull = errors.New("audit queue full: event dropped")

// Queue is a Sink that hands events to a Worker through a buffered channel.
type Queue struct {
	ch      chan Event
	metrics *Metrics
}

type QueueOption func(*Queue)

// WithQueueMetrics counts events dropped on a full buffer.
func WithQueueMetrics(m *Metrics) QueueOption {
	return func(q *Queue) { q.metrics = m }
}

func NewQueue(size int, opts ...QueueOption) *Queue {
	q := &Queue{ch: make(chan Event, size)}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Append never blocks: a full buffer drops the event with ErrQueueFull.
func (q *Queue) Append(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- event:
		return nil
	default:
		if q.metrics != nil {
			q.metrics.IncDropped()
		}
		return ErrQueueFull
	}
}

// Events is the receive side for a Worker.
func (q *Queue) Events() <-chan Event {
	return q.ch
}

// Encode renders an event for brokers.
func Encode(event Event) ([]byte, error) {
	return json.Marshal(event)
}

// Decode parses an event produced by Encode.
func Decode(data []byte) (Event, error) {
	var event Event
	err := json.Unmarshal(data, &event)
	return event, err
}
