// Package relay moves committed outbox rows to the broker. It polls on a
// ticker and can be woken early by the command pipeline after a commit.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"staybook/internal/app/outbox"
)

// Publisher sends one encoded event to the broker.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

type Worker struct {
	store     outbox.Store
	publisher Publisher
	log       *slog.Logger

	topicPrefix string
	interval    time.Duration
	batchSize   int
	wake        chan struct{}
}

type Config struct {
	TopicPrefix string
	Interval    time.Duration
	BatchSize   int
}

func NewWorker(store outbox.Store, publisher Publisher, log *slog.Logger, cfg Config) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "staybook"
	}
	return &Worker{
		store:       store,
		publisher:   publisher,
		log:         log,
		topicPrefix: cfg.TopicPrefix,
		interval:    cfg.Interval,
		batchSize:   cfg.BatchSize,
		wake:        make(chan struct{}, 1),
	}
}

// Wake nudges the worker to drain immediately.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run drains the outbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-w.wake:
		}
		w.drain(ctx)
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		recs, err := w.store.Claim(ctx, w.batchSize)
		if err != nil {
			w.log.ErrorContext(ctx, "outbox claim failed", "err", err)
			return
		}
		if len(recs) == 0 {
			return
		}
		for _, rec := range recs {
			if err := w.publish(ctx, rec); err != nil {
				w.log.ErrorContext(ctx, "outbox publish failed", "event", rec.EventName, "id", rec.ID, "err", err)
				if markErr := w.store.MarkFailed(ctx, rec.ID, err); markErr != nil {
					w.log.ErrorContext(ctx, "outbox mark failed errored", "id", rec.ID, "err", markErr)
				}
				continue
			}
			if err := w.store.MarkSent(ctx, rec.ID); err != nil {
				w.log.ErrorContext(ctx, "outbox mark sent errored", "id", rec.ID, "err", err)
			}
		}
	}
}

// envelope is the wire format on the broker: a CloudEvents-flavoured wrapper
// around the domain payload.
type envelope struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Source      string          `json:"source"`
	AggregateID string          `json:"aggregate_id"`
	Time        time.Time       `json:"time"`
	Data        json.RawMessage `json:"data"`
}

func (w *Worker) publish(ctx context.Context, rec outbox.Record) error {
	payload, err := json.Marshal(envelope{
		ID:          rec.ID,
		Type:        rec.EventName,
		Source:      w.topicPrefix,
		AggregateID: rec.AggregateID,
		Time:        rec.OccurredAt,
		Data:        rec.Payload,
	})
	if err != nil {
		return err
	}
	return w.publisher.Publish(ctx, w.topicFor(rec.EventName), rec.AggregateID, payload)
}

// topicFor maps "booking.confirmed" to "<prefix>.booking": one topic per
// aggregate kind, keyed by aggregate ID for per-aggregate ordering.
func (w *Worker) topicFor(eventName string) string {
	kind := eventName
	if i := strings.IndexByte(eventName, '.'); i > 0 {
		kind = eventName[:i]
	}
	return w.topicPrefix + "." + kind
}
