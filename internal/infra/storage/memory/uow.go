package memory

import (
	"context"

	"staybook/internal/app/uow"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/calendar"
	"staybook/internal/domain/rental"
	"staybook/internal/infra/storage"
)

// Factory opens units of work over one shared Store.
type Factory struct {
	store *Store
}

func NewFactory(store *Store) *Factory {
	return &Factory{store: store}
}

func (f *Factory) Begin(_ context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	return &unit{
		store:    f.store,
		readOnly: opts.ReadOnly,
		rentals:  make(map[rental.RentalID]*stagedRental),
		cals:     make(map[rental.RentalID]*stagedCalendar),
		bookings: make(map[booking.BookingID]*stagedBooking),
	}, nil
}

type stagedRental struct {
	loadedVersion int64
	value         *rental.Rental
	dirty         bool
}

type stagedCalendar struct {
	loadedVersion int64
	value         *calendar.Calendar
	dirty         bool
}

type stagedBooking struct {
	loadedVersion int64
	value         *booking.Booking
	dirty         bool
}

// unit stages reads and writes against private clones and applies the dirty
// ones on Commit under the store lock, failing when a loaded aggregate moved
// on since.
type unit struct {
	store    *Store
	readOnly bool
	done     bool

	rentals  map[rental.RentalID]*stagedRental
	cals     map[rental.RentalID]*stagedCalendar
	bookings map[booking.BookingID]*stagedBooking
}

func (u *unit) Rentals() rental.Repository     { return rentalRepo{u} }
func (u *unit) Calendars() calendar.Repository { return calendarRepo{u} }
func (u *unit) Bookings() booking.Repository   { return bookingRepo{u} }

func (u *unit) Commit(_ context.Context) error {
	if u.done {
		return uow.ErrAlreadyFinished
	}
	u.done = true
	if u.readOnly {
		return nil
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	// Validate every dirty aggregate before touching anything, so a
	// conflicting commit leaves the store untouched.
	for id, st := range u.rentals {
		if st.dirty && currentRentalVersion(u.store, id) != st.loadedVersion {
			return storage.ErrConcurrentUpdate
		}
	}
	for id, st := range u.cals {
		if st.dirty && currentCalendarVersion(u.store, id) != st.loadedVersion {
			return storage.ErrConcurrentUpdate
		}
	}
	for id, st := range u.bookings {
		if st.dirty && currentBookingVersion(u.store, id) != st.loadedVersion {
			return storage.ErrConcurrentUpdate
		}
	}

	for id, st := range u.rentals {
		if st.dirty {
			cp := cloneRental(st.value)
			cp.Version = st.loadedVersion + 1
			u.store.rentals[id] = cp
		}
	}
	for id, st := range u.cals {
		if st.dirty {
			cp := cloneCalendar(st.value)
			cp.Version = st.loadedVersion + 1
			u.store.calendars[id] = cp
		}
	}
	for id, st := range u.bookings {
		if st.dirty {
			cp := cloneBooking(st.value)
			cp.Version = st.loadedVersion + 1
			u.store.bookings[id] = cp
		}
	}
	return nil
}

func (u *unit) Rollback(_ context.Context) error {
	if u.done {
		return uow.ErrAlreadyFinished
	}
	u.done = true
	return nil
}

func currentRentalVersion(s *Store, id rental.RentalID) int64 {
	if r, ok := s.rentals[id]; ok {
		return r.Version
	}
	return 0
}

func currentCalendarVersion(s *Store, id rental.RentalID) int64 {
	if c, ok := s.calendars[id]; ok {
		return c.Version
	}
	return 0
}

func currentBookingVersion(s *Store, id booking.BookingID) int64 {
	if b, ok := s.bookings[id]; ok {
		return b.Version
	}
	return 0
}

type rentalRepo struct{ u *unit }

func (r rentalRepo) ByID(_ context.Context, id rental.RentalID) (*rental.Rental, error) {
	if st, ok := r.u.rentals[id]; ok {
		return st.value, nil
	}
	r.u.store.mu.Lock()
	stored, ok := r.u.store.rentals[id]
	r.u.store.mu.Unlock()
	if !ok {
		return nil, rental.ErrRentalNotFound
	}
	st := &stagedRental{loadedVersion: stored.Version, value: cloneRental(stored)}
	r.u.rentals[id] = st
	return st.value, nil
}

func (r rentalRepo) Save(_ context.Context, rent *rental.Rental) error {
	st, ok := r.u.rentals[rent.ID]
	if !ok {
		st = &stagedRental{loadedVersion: rent.Version}
		r.u.rentals[rent.ID] = st
	}
	st.value = rent
	st.dirty = true
	return nil
}

type calendarRepo struct{ u *unit }

func (r calendarRepo) ForRental(_ context.Context, id rental.RentalID) (*calendar.Calendar, error) {
	if st, ok := r.u.cals[id]; ok {
		return st.value, nil
	}
	r.u.store.mu.Lock()
	stored, ok := r.u.store.calendars[id]
	r.u.store.mu.Unlock()
	var st *stagedCalendar
	if ok {
		st = &stagedCalendar{loadedVersion: stored.Version, value: cloneCalendar(stored)}
	} else {
		// Calendars materialize lazily with their rental.
		st = &stagedCalendar{value: calendar.New(id)}
	}
	r.u.cals[id] = st
	return st.value, nil
}

func (r calendarRepo) Save(_ context.Context, cal *calendar.Calendar) error {
	st, ok := r.u.cals[cal.RentalID]
	if !ok {
		st = &stagedCalendar{loadedVersion: cal.Version}
		r.u.cals[cal.RentalID] = st
	}
	st.value = cal
	st.dirty = true
	return nil
}

type bookingRepo struct{ u *unit }

func (r bookingRepo) ByID(_ context.Context, id booking.BookingID) (*booking.Booking, error) {
	if st, ok := r.u.bookings[id]; ok {
		return st.value, nil
	}
	r.u.store.mu.Lock()
	stored, ok := r.u.store.bookings[id]
	r.u.store.mu.Unlock()
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	st := &stagedBooking{loadedVersion: stored.Version, value: cloneBooking(stored)}
	r.u.bookings[id] = st
	return st.value, nil
}

func (r bookingRepo) Save(_ context.Context, b *booking.Booking) error {
	st, ok := r.u.bookings[b.ID]
	if !ok {
		st = &stagedBooking{loadedVersion: b.Version}
		r.u.bookings[b.ID] = st
	}
	st.value = b
	st.dirty = true
	return nil
}

func (r bookingRepo) ListByGuest(_ context.Context, guestID string) ([]*booking.Booking, error) {
	r.u.store.mu.Lock()
	defer r.u.store.mu.Unlock()
	var out []*booking.Booking
	for _, b := range r.u.store.bookings {
		if b.GuestID == guestID {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}
