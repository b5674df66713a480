//go:build integration

package kafka_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	audit "ledgerguard/pkg/platform/audit"
	"ledgerguard/pkg/platform/audit/publishers/kafka"
	"ledgerguard/pkg/platform/audit/store/memory"
	"ledgerguard/pkg/testutil/containers"
)

func TestProducerConsumerRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	topic := "audit-" + uuid.NewString()
	require.NoError(t, kafka.EnsureTopic(ctx, broker.Brokers, topic, 1, 1))
	require.NoError(t, kafka.EnsureTopic(ctx, broker.Brokers, topic, 1, 1), "existing topic is not an error")

	producer, err := kafka.NewProducer(broker.Brokers, topic)
	require.NoError(t, err)
	defer producer.Close()

	event := audit.Event{
		ID:        uuid.New(),
		Category:  audit.CategorySecurity,
		Timestamp: time.Now().UTC(),
		Action:    string(audit.EventPaused),
		Subject:   "0x0000000000000000000000000000000000000001",
		ActorID:   "0x0000000000000000000000000000000000000001",
	}
	require.NoError(t, producer.Append(ctx, event))

	store := memory.NewInMemoryStore()
	consumer, err := kafka.NewConsumer(broker.Brokers, topic, "audit-test", store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- consumer.Run(runCtx) }()

	require.Eventually(t, func() bool {
		events, _ := store.ListBySubject(ctx, event.Subject)
		return len(events) == 1 && events[0].ID == event.ID
	}, 30*time.Second, 200*time.Millisecond)

	stop()
	<-done
}
