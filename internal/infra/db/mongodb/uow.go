package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"staybook/internal/app/uow"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/calendar"
	"staybook/internal/domain/rental"
)

// Factory opens units of work backed by Mongo sessions. Versioned writes
// already prevent lost updates on a single aggregate; the session makes the
// booking-plus-calendar pair commit atomically on replica-set deployments.
type Factory struct {
	db        *mongo.Database
	rentals   *RentalRepository
	calendars *CalendarRepository
	bookings  *BookingRepository
}

func NewFactory(db *mongo.Database) *Factory {
	return &Factory{
		db:        db,
		rentals:   NewRentalRepository(db),
		calendars: NewCalendarRepository(db),
		bookings:  NewBookingRepository(db),
	}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if opts.ReadOnly {
		return &unit{factory: f, readOnly: true}, nil
	}
	sess, err := f.db.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("mongodb: start session: %w", err)
	}
	if err := sess.StartTransaction(); err != nil {
		sess.EndSession(ctx)
		return nil, fmt.Errorf("mongodb: start transaction: %w", err)
	}
	return &unit{factory: f, session: sess}, nil
}

type unit struct {
	factory  *Factory
	session  mongo.Session
	readOnly bool
	done     bool
}

// bind threads the session through the caller's context so repository reads
// and writes join the transaction.
func (u *unit) bind(ctx context.Context) context.Context {
	if u.session == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, u.session)
}

func (u *unit) Rentals() rental.Repository     { return sessionRentalRepo{u} }
func (u *unit) Calendars() calendar.Repository { return sessionCalendarRepo{u} }
func (u *unit) Bookings() booking.Repository   { return sessionBookingRepo{u} }

func (u *unit) Commit(ctx context.Context) error {
	if u.done {
		return uow.ErrAlreadyFinished
	}
	u.done = true
	if u.session == nil {
		return nil
	}
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(u.bind(ctx)); err != nil {
		return fmt.Errorf("mongodb: commit: %w", err)
	}
	return nil
}

func (u *unit) Rollback(ctx context.Context) error {
	if u.done {
		return uow.ErrAlreadyFinished
	}
	u.done = true
	if u.session == nil {
		return nil
	}
	defer u.session.EndSession(ctx)
	if err := u.session.AbortTransaction(u.bind(ctx)); err != nil {
		return fmt.Errorf("mongodb: rollback: %w", err)
	}
	return nil
}

type sessionRentalRepo struct{ u *unit }

func (r sessionRentalRepo) ByID(ctx context.Context, id rental.RentalID) (*rental.Rental, error) {
	return r.u.factory.rentals.ByID(r.u.bind(ctx), id)
}

func (r sessionRentalRepo) Save(ctx context.Context, rent *rental.Rental) error {
	return r.u.factory.rentals.Save(r.u.bind(ctx), rent)
}

type sessionCalendarRepo struct{ u *unit }

func (r sessionCalendarRepo) ForRental(ctx context.Context, id rental.RentalID) (*calendar.Calendar, error) {
	return r.u.factory.calendars.ForRental(r.u.bind(ctx), id)
}

func (r sessionCalendarRepo) Save(ctx context.Context, cal *calendar.Calendar) error {
	return r.u.factory.calendars.Save(r.u.bind(ctx), cal)
}

type sessionBookingRepo struct{ u *unit }

func (r sessionBookingRepo) ByID(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	return r.u.factory.bookings.ByID(r.u.bind(ctx), id)
}

func (r sessionBookingRepo) Save(ctx context.Context, b *booking.Booking) error {
	return r.u.factory.bookings.Save(r.u.bind(ctx), b)
}

func (r sessionBookingRepo) ListByGuest(ctx context.Context, guestID string) ([]*booking.Booking, error) {
	return r.u.factory.bookings.ListByGuest(r.u.bind(ctx), guestID)
}
