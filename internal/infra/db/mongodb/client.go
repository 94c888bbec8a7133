// Package mongodb is the production persistence adapter. Aggregates are
// stored one document per aggregate with an integer version field; every
// replace is conditional on the version read, so racing writers surface as
// storage.ErrConcurrentUpdate instead of silent lost updates.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	rentalsCollection   = "rentals"
	calendarsCollection = "calendars"
	bookingsCollection  = "bookings"
	outboxCollection    = "outbox"
)

// Connect dials the cluster and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongodb: ping: %w", err)
	}
	return client.Database(database), nil
}
