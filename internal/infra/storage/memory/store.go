// Package memory is the in-process persistence used by tests and the dev
// profile. Units of work stage their writes and apply them on Commit under
// one store-wide lock with a version check per aggregate, so two racing
// bookings for the same dates resolve exactly like the transactional
// backends: one commits, the other gets storage.ErrConcurrentUpdate.
package memory

import (
	"sync"
	"time"

	"staybook/internal/domain/booking"
	"staybook/internal/domain/calendar"
	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/events"
)

// Store is the shared state behind every unit of work.
type Store struct {
	mu        sync.Mutex
	rentals   map[rental.RentalID]*rental.Rental
	calendars map[rental.RentalID]*calendar.Calendar
	bookings  map[booking.BookingID]*booking.Booking
}

func NewStore() *Store {
	return &Store{
		rentals:   make(map[rental.RentalID]*rental.Rental),
		calendars: make(map[rental.RentalID]*calendar.Calendar),
		bookings:  make(map[booking.BookingID]*booking.Booking),
	}
}

// SeedRental installs a rental (and an empty calendar) outside any unit of
// work. Test and dev bootstrap helper.
func (s *Store) SeedRental(r *rental.Rental) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rentals[r.ID] = cloneRental(r)
	if _, ok := s.calendars[r.ID]; !ok {
		s.calendars[r.ID] = calendar.New(r.ID)
	}
}

func cloneRental(r *rental.Rental) *rental.Rental {
	if r == nil {
		return nil
	}
	cp := *r
	cp.EventRecorder = events.EventRecorder{}
	cp.SeasonalRates = append([]rental.SeasonalRate(nil), r.SeasonalRates...)
	cp.Discounts = append([]rental.Discount(nil), r.Discounts...)
	cp.Fees = append([]rental.Fee(nil), r.Fees...)
	cp.Availability.BlockedDates = append([]time.Time(nil), r.Availability.BlockedDates...)
	cp.Policy.Schedule = append([]rental.RefundSchedule(nil), r.Policy.Schedule...)
	return &cp
}

func cloneCalendar(c *calendar.Calendar) *calendar.Calendar {
	if c == nil {
		return nil
	}
	cp := calendar.Calendar{RentalID: c.RentalID, Version: c.Version, Days: make(map[string]calendar.Day, len(c.Days))}
	for k, d := range c.Days {
		if d.PriceOverride != nil {
			price := *d.PriceOverride
			d.PriceOverride = &price
		}
		cp.Days[k] = d
	}
	return &cp
}

func cloneBooking(b *booking.Booking) *booking.Booking {
	if b == nil {
		return nil
	}
	cp := *b
	cp.EventRecorder = events.EventRecorder{}
	cp.Price = b.Price.Copy()
	if b.Cancellation != nil {
		rec := *b.Cancellation
		cp.Cancellation = &rec
	}
	return &cp
}
