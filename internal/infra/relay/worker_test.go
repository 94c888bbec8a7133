package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/outbox"
	"staybook/internal/infra/relay"
	"staybook/internal/infra/storage/memory"
)

type capturePublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	failOn   string
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{messages: make(map[string][][]byte)}
}

func (p *capturePublisher) Publish(_ context.Context, topic, _ string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn == topic {
		return errors.New("broker unavailable")
	}
	p.messages[topic] = append(p.messages[topic], payload)
	return nil
}

func (p *capturePublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages[topic])
}

func record(id, name, aggregate string, at time.Time) outbox.Record {
	return outbox.Record{
		ID:          id,
		EventName:   name,
		AggregateID: aggregate,
		Payload:     []byte(`{"ok":true}`),
		OccurredAt:  at,
	}
}

func TestWorkerDrainsOnWake(t *testing.T) {
	store := memory.NewOutbox()
	publisher := newCapturePublisher()
	worker := relay.NewWorker(store, publisher, slog.Default(), relay.Config{
		TopicPrefix: "staybook",
		Interval:    time.Hour, // only the wake should trigger the drain
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, []outbox.Record{
		record("1", "booking.confirmed", "b-1", now),
		record("2", "calendar.reserved", "r-1", now.Add(time.Second)),
	}))
	worker.Wake()

	require.Eventually(t, func() bool {
		return store.Sent() == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, publisher.count("staybook.booking"))
	assert.Equal(t, 1, publisher.count("staybook.calendar"))
}

func TestWorkerWrapsPayloadInEnvelope(t *testing.T) {
	store := memory.NewOutbox()
	publisher := newCapturePublisher()
	worker := relay.NewWorker(store, publisher, slog.Default(), relay.Config{
		TopicPrefix: "staybook",
		Interval:    10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, []outbox.Record{record("1", "booking.cancelled", "b-9", now)}))

	require.Eventually(t, func() bool {
		return publisher.count("staybook.booking") == 1
	}, 2*time.Second, 10*time.Millisecond)

	publisher.mu.Lock()
	payload := publisher.messages["staybook.booking"][0]
	publisher.mu.Unlock()

	var env struct {
		ID          string          `json:"id"`
		Type        string          `json:"type"`
		AggregateID string          `json:"aggregate_id"`
		Data        json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &env))
	assert.Equal(t, "1", env.ID)
	assert.Equal(t, "booking.cancelled", env.Type)
	assert.Equal(t, "b-9", env.AggregateID)
	assert.JSONEq(t, `{"ok":true}`, string(env.Data))
}

func TestWorkerMarksFailuresForRetry(t *testing.T) {
	store := memory.NewOutbox()
	publisher := newCapturePublisher()
	publisher.failOn = "staybook.booking"
	worker := relay.NewWorker(store, publisher, slog.Default(), relay.Config{
		TopicPrefix: "staybook",
		Interval:    10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, []outbox.Record{record("1", "booking.confirmed", "b-1", now)}))
	worker.Wake()

	// the row keeps failing, never reaching sent
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, store.Sent())

	// broker recovers; the failed row is retried and goes through
	publisher.mu.Lock()
	publisher.failOn = ""
	publisher.mu.Unlock()
	require.Eventually(t, func() bool {
		return store.Sent() == 1
	}, 2*time.Second, 10*time.Millisecond)
}
