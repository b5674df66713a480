package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "ledgerguard/pkg/platform/audit"
	"ledgerguard/pkg/platform/audit/store/memory"
)

type failingSink struct{ err error }

func (f failingSink) Append(context.Context, audit.Event) error { return f.err }

type countingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (c *countingSink) Append(_ context.Context, e audit.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func TestPublisher_StampsEvents(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store)

	err := pub.Emit(context.Background(), audit.Event{
		Action:  string(audit.EventRoleAdded),
		Subject: "0xa",
	})
	require.NoError(t, err)

	events, err := store.ListBySubject(context.Background(), "0xa")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}

func TestPublisher_KeepsExplicitFields(t *testing.T) {
	sink := &countingSink{}
	pub := audit.NewPublisher(sink)
	id := uuid.New()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, pub.Emit(context.Background(), audit.Event{ID: id, Timestamp: at, Action: "custom"}))
	require.Len(t, sink.events, 1)
	assert.Equal(t, id, sink.events[0].ID)
	assert.Equal(t, at, sink.events[0].Timestamp)
	assert.Equal(t, audit.CategoryOperations, sink.events[0].Category, "unknown actions default to operations")
}

func TestFanout(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}

	t.Run("delivers to every sink", func(t *testing.T) {
		f := audit.NewFanout(a, nil, b)
		require.NoError(t, f.Append(context.Background(), audit.Event{Action: "mint"}))
		assert.Len(t, a.events, 1)
		assert.Len(t, b.events, 1)
	})

	t.Run("reports a failing sink after trying the rest", func(t *testing.T) {
		boom := errors.New("broker down")
		f := audit.NewFanout(failingSink{err: boom}, a)
		err := f.Append(context.Background(), audit.Event{Action: "burn"})
		require.ErrorIs(t, err, boom)
		assert.Len(t, a.events, 2)
	})
}

func TestQueue(t *testing.T) {
	t.Run("full buffer drops instead of blocking", func(t *testing.T) {
		m := &audit.Metrics{Dropped: prometheus.NewCounter(prometheus.CounterOpts{Name: "dropped"})}
		q := audit.NewQueue(1, audit.WithQueueMetrics(m))
		require.NoError(t, q.Append(context.Background(), audit.Event{Action: "paused"}))

		err := q.Append(context.Background(), audit.Event{Action: "unpaused"})
		require.ErrorIs(t, err, audit.ErrQueueFull)
		assert.Equal(t, float64(1), promtestutil.ToFloat64(m.Dropped))

		e := <-q.Events()
		assert.Equal(t, "paused", e.Action)
		require.NoError(t, q.Append(context.Background(), audit.Event{Action: "unpaused"}))
	})

	t.Run("done context is honoured", func(t *testing.T) {
		q := audit.NewQueue(1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.ErrorIs(t, q.Append(ctx, audit.Event{Action: "paused"}), context.Canceled)
		assert.Empty(t, q.Events())
	})
}

func TestEncodeDecode(t *testing.T) {
	in := audit.Event{
		ID:        uuid.New(),
		Category:  audit.CategoryCompliance,
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Action:    string(audit.EventTransferProposalUpdated),
		Subject:   "0xa",
		ActorID:   "0xb",
		Details:   map[string]string{"request_id": "3", "state": "approved"},
	}
	data, err := audit.Encode(in)
	require.NoError(t, err)
	out, err := audit.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
