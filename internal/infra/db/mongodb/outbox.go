package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/app/outbox"
)

const (
	outboxStateNew     = "NEW"
	outboxStateClaimed = "CLAIMED"
	outboxStateSent    = "SENT"
	outboxStateFailed  = "FAILED"
)

// Claims older than this are considered abandoned by a crashed relay and
// become claimable again.
const claimTimeout = time.Minute

type outboxDoc struct {
	ID          string    `bson:"_id"`
	EventName   string    `bson:"event_name"`
	AggregateID string    `bson:"aggregate_id"`
	Payload     []byte    `bson:"payload"`
	OccurredAt  time.Time `bson:"occurred_at"`
	State       string    `bson:"state"`
	Attempts    int       `bson:"attempts"`
	ClaimedAt   time.Time `bson:"claimed_at,omitempty"`
	LastError   string    `bson:"last_error,omitempty"`
}

// OutboxStore persists event records next to the business write.
type OutboxStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewOutboxStore(db *mongo.Database) *OutboxStore {
	return &OutboxStore{coll: db.Collection(outboxCollection), now: time.Now}
}

func (s *OutboxStore) Append(ctx context.Context, recs []outbox.Record) error {
	if len(recs) == 0 {
		return nil
	}
	docs := make([]any, 0, len(recs))
	for _, rec := range recs {
		docs = append(docs, outboxDoc{
			ID:          rec.ID,
			EventName:   rec.EventName,
			AggregateID: rec.AggregateID,
			Payload:     rec.Payload,
			OccurredAt:  rec.OccurredAt,
			State:       outboxStateNew,
			Attempts:    rec.Attempts,
		})
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("mongodb: append outbox: %w", err)
	}
	return nil
}

// Claim atomically moves up to limit pending rows into the claimed state and
// returns them oldest first. Failed rows and stale claims are retried.
func (s *OutboxStore) Claim(ctx context.Context, limit int) ([]outbox.Record, error) {
	now := s.now().UTC()
	filter := bson.M{"$or": bson.A{
		bson.M{"state": outboxStateNew},
		bson.M{"state": outboxStateFailed},
		bson.M{"state": outboxStateClaimed, "claimed_at": bson.M{"$lt": now.Add(-claimTimeout)}},
	}}
	update := bson.M{"$set": bson.M{"state": outboxStateClaimed, "claimed_at": now}}

	var out []outbox.Record
	for limit <= 0 || len(out) < limit {
		var doc outboxDoc
		err := s.coll.FindOneAndUpdate(ctx, filter, update,
			options.FindOneAndUpdate().SetSort(bson.D{{Key: "occurred_at", Value: 1}})).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("mongodb: claim outbox: %w", err)
		}
		out = append(out, outbox.Record{
			ID:          doc.ID,
			EventName:   doc.EventName,
			AggregateID: doc.AggregateID,
			Payload:     doc.Payload,
			OccurredAt:  doc.OccurredAt,
			Attempts:    doc.Attempts,
		})
	}
	return out, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	_, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": outboxStateSent}})
	if err != nil {
		return fmt.Errorf("mongodb: mark sent: %w", err)
	}
	return nil
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := s.coll.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"state": outboxStateFailed, "last_error": msg},
		"$inc": bson.M{"attempts": 1},
	})
	if err != nil {
		return fmt.Errorf("mongodb: mark failed: %w", err)
	}
	return nil
}

var _ outbox.Store = (*OutboxStore)(nil)
