package bookinghandlers

import (
	"context"
	"fmt"
	"time"

	"staybook/internal/app/outbox"
	"staybook/internal/domain/availability"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/daterange"
)

// RequestBooking asks for a stay. On instant-book rentals the booking comes
// back confirmed with the dates already reserved; otherwise it stays pending
// until the owner confirms.
type RequestBooking struct {
	IdemKey   string
	RentalID  rental.RentalID
	GuestID   string
	CheckIn   time.Time
	CheckOut  time.Time
	Guests    availability.GuestCounts
	PromoCode string
	Taxes     []pricing.TaxLine
}

func (RequestBooking) Key() string              { return RequestBookingKey }
func (c RequestBooking) IdempotencyKey() string { return c.IdemKey }

// RequestBookingResult reports the created booking and its priced quote.
type RequestBookingResult struct {
	BookingID booking.BookingID
	Status    booking.Status
	Quote     pricing.Breakdown
}

type RequestBookingHandler struct {
	Deps
}

func NewRequestBookingHandler(deps Deps) *RequestBookingHandler {
	deps.fill()
	return &RequestBookingHandler{Deps: deps}
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBooking) (RequestBookingResult, error) {
	var zero RequestBookingResult
	unit, err := unitFrom(ctx)
	if err != nil {
		return zero, err
	}
	now := h.Clock().UTC()

	rent, err := unit.Rentals().ByID(ctx, cmd.RentalID)
	if err != nil {
		return zero, err
	}
	cal, err := unit.Calendars().ForRental(ctx, cmd.RentalID)
	if err != nil {
		return zero, err
	}

	dr, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return zero, err
	}
	check := availability.Validate(rent, cal, availability.Request{Range: dr, Guests: cmd.Guests, Now: now})
	if !check.OK() {
		return zero, fmt.Errorf("%w: %s (%s)", ErrNotBookable, check.Reason, check.Detail)
	}

	quote, err := pricing.Quote(pricing.QuoteInput{
		Rental:    rent,
		Calendar:  cal,
		Range:     dr,
		Guests:    cmd.Guests,
		PromoCode: cmd.PromoCode,
		Taxes:     cmd.Taxes,
		Now:       now,
	})
	if err != nil {
		return zero, err
	}

	instant := rent.Availability.InstantBook
	holdRef := ""
	if instant && quote.Total.Amount > 0 {
		holdRef, err = h.Payments.PlaceHold(ctx, cmd.GuestID, quote.Total)
		if err != nil {
			return zero, fmt.Errorf("bookinghandlers: place hold: %w", err)
		}
	}

	b, err := booking.NewBooking(booking.CreateParams{
		ID:          booking.BookingID(h.NewID()),
		RentalID:    rent.ID,
		GuestID:     cmd.GuestID,
		OwnerID:     rent.Owner,
		Range:       dr,
		Guests:      cmd.Guests,
		Price:       quote,
		Policy:      rent.Policy,
		InstantBook: instant,
		PaymentHold: holdRef,
		Now:         now,
	})
	if err != nil {
		return zero, err
	}

	if b.Status == booking.StatusConfirmed {
		if err := cal.Reserve(dr, string(b.ID), now); err != nil {
			return zero, err
		}
		if err := unit.Calendars().Save(ctx, cal); err != nil {
			return zero, err
		}
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return zero, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, b, cal); err != nil {
		return zero, err
	}

	h.notify(ctx, string(rent.Owner), "New booking request", fmt.Sprintf("Booking %s for %s", b.ID, dr))
	h.Log.InfoContext(ctx, "booking requested",
		"booking_id", b.ID, "rental_id", rent.ID, "status", b.Status, "total", quote.Total.Amount)

	return RequestBookingResult{BookingID: b.ID, Status: b.Status, Quote: quote}, nil
}
