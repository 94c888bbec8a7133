// Package outbox records domain events alongside the business write so they
// can be published to the broker after the transaction commits.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"staybook/internal/domain/shared/events"
)

var ErrEmptyEvent = errors.New("outbox: empty event")

// Record is a single pending event row.
type Record struct {
	ID          string
	EventName   string
	AggregateID string
	Payload     []byte
	OccurredAt  time.Time
	Attempts    int
}

// Store persists records within the ambient unit of work and hands them to
// the relay worker afterwards.
type Store interface {
	Append(ctx context.Context, recs []Record) error
	Claim(ctx context.Context, limit int) ([]Record, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, cause error) error
}

// Encoder turns a domain event into an outbox record.
type Encoder interface {
	Encode(ev events.DomainEvent) (Record, error)
}

// JSONEncoder marshals the event value as-is and assigns a fresh record ID.
type JSONEncoder struct {
	NewID func() string
}

func NewJSONEncoder() *JSONEncoder {
	return &JSONEncoder{NewID: uuid.NewString}
}

func (e *JSONEncoder) Encode(ev events.DomainEvent) (Record, error) {
	if ev == nil {
		return Record{}, ErrEmptyEvent
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return Record{}, fmt.Errorf("outbox: encode %s: %w", ev.EventName(), err)
	}
	return Record{
		ID:          e.NewID(),
		EventName:   ev.EventName(),
		AggregateID: ev.AggregateID(),
		Payload:     payload,
		OccurredAt:  ev.OccurredAt(),
	}, nil
}

// EventSource is any aggregate that buffers domain events.
type EventSource interface {
	PendingEvents() []events.DomainEvent
	ClearEvents()
}

// Drain encodes and appends every pending event of the recorders, clearing
// them on success. Call it right before Commit so the rows join the write.
func Drain(ctx context.Context, store Store, enc Encoder, recorders ...EventSource) error {
	var recs []Record
	for _, r := range recorders {
		if r == nil {
			continue
		}
		for _, ev := range r.PendingEvents() {
			rec, err := enc.Encode(ev)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
	}
	if len(recs) == 0 {
		return nil
	}
	if err := store.Append(ctx, recs); err != nil {
		return err
	}
	for _, r := range recorders {
		if r != nil {
			r.ClearEvents()
		}
	}
	return nil
}
