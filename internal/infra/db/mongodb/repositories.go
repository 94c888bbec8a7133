package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/domain/booking"
	"staybook/internal/domain/calendar"
	"staybook/internal/domain/rental"
	"staybook/internal/infra/storage"
)

// saveVersioned inserts a fresh aggregate or replaces an existing one behind
// a version guard. The replace filter pins the version the caller loaded;
// zero matches means someone else won the write.
func saveVersioned(ctx context.Context, coll *mongo.Collection, id string, loadedVersion int64, doc any) error {
	if loadedVersion == 0 {
		_, err := coll.InsertOne(ctx, doc)
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrConcurrentUpdate
		}
		return err
	}
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id, "version": loadedVersion}, doc)
	if err != nil {
		return fmt.Errorf("mongodb: replace %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrConcurrentUpdate
	}
	return nil
}

type RentalRepository struct {
	coll *mongo.Collection
}

func NewRentalRepository(db *mongo.Database) *RentalRepository {
	return &RentalRepository{coll: db.Collection(rentalsCollection)}
}

func (r *RentalRepository) ByID(ctx context.Context, id rental.RentalID) (*rental.Rental, error) {
	var doc rentalDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, rental.ErrRentalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: load rental: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *RentalRepository) Save(ctx context.Context, rent *rental.Rental) error {
	doc := toRentalDoc(rent)
	doc.Version = rent.Version + 1
	if err := saveVersioned(ctx, r.coll, doc.ID, rent.Version, doc); err != nil {
		return err
	}
	rent.Version = doc.Version
	return nil
}

type CalendarRepository struct {
	coll *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{coll: db.Collection(calendarsCollection)}
}

// ForRental loads the calendar, materializing an empty one for rentals that
// have never been booked or blocked.
func (r *CalendarRepository) ForRental(ctx context.Context, id rental.RentalID) (*calendar.Calendar, error) {
	var doc calendarDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return calendar.New(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: load calendar: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *calendar.Calendar) error {
	doc := toCalendarDoc(cal)
	doc.Version = cal.Version + 1
	if cal.Version == 0 {
		// First write may race another first write; upsert with a version
		// guard keeps exactly one winner.
		res, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": doc.RentalID, "version": bson.M{"$in": bson.A{nil, int64(0)}}},
			bson.M{"$set": doc},
			options.Update().SetUpsert(true))
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return storage.ErrConcurrentUpdate
			}
			return fmt.Errorf("mongodb: save calendar: %w", err)
		}
		if res.MatchedCount == 0 && res.UpsertedCount == 0 {
			return storage.ErrConcurrentUpdate
		}
		cal.Version = doc.Version
		return nil
	}
	if err := saveVersioned(ctx, r.coll, doc.RentalID, cal.Version, doc); err != nil {
		return err
	}
	cal.Version = doc.Version
	return nil
}

type BookingRepository struct {
	coll *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{coll: db.Collection(bookingsCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	var doc bookingDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, booking.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: load booking: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	doc := toBookingDoc(b)
	doc.Version = b.Version + 1
	if err := saveVersioned(ctx, r.coll, doc.ID, b.Version, doc); err != nil {
		return err
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*booking.Booking, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"guest_id": guestID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongodb: list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*booking.Booking
	for cursor.Next(ctx) {
		var doc bookingDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongodb: decode booking: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	return out, cursor.Err()
}
