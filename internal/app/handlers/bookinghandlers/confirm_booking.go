package bookinghandlers

import (
	"context"
	"fmt"

	"staybook/internal/app/outbox"
	"staybook/internal/domain/booking"
)

// ConfirmBooking is the owner accepting a pending request. Confirmation and
// the calendar reservation succeed or fail together; a date conflict at this
// point surfaces as calendar.ErrDatesTaken and leaves the booking pending.
type ConfirmBooking struct {
	IdemKey   string
	BookingID booking.BookingID
	OwnerID   string
}

func (ConfirmBooking) Key() string              { return ConfirmBookingKey }
func (c ConfirmBooking) IdempotencyKey() string { return c.IdemKey }

type ConfirmBookingResult struct {
	BookingID booking.BookingID
	Status    booking.Status
}

type ConfirmBookingHandler struct {
	Deps
}

func NewConfirmBookingHandler(deps Deps) *ConfirmBookingHandler {
	deps.fill()
	return &ConfirmBookingHandler{Deps: deps}
}

func (h *ConfirmBookingHandler) Handle(ctx context.Context, cmd ConfirmBooking) (ConfirmBookingResult, error) {
	var zero ConfirmBookingResult
	unit, err := unitFrom(ctx)
	if err != nil {
		return zero, err
	}
	now := h.Clock().UTC()

	b, err := unit.Bookings().ByID(ctx, cmd.BookingID)
	if err != nil {
		return zero, err
	}
	cal, err := unit.Calendars().ForRental(ctx, b.RentalID)
	if err != nil {
		return zero, err
	}

	holdRef := b.PaymentHold
	if holdRef == "" && b.Price.Total.Amount > 0 {
		holdRef, err = h.Payments.PlaceHold(ctx, b.GuestID, b.Price.Total)
		if err != nil {
			return zero, fmt.Errorf("bookinghandlers: place hold: %w", err)
		}
	}
	if err := b.Confirm(holdRef, now); err != nil {
		return zero, err
	}
	if err := cal.Reserve(b.Range, string(b.ID), now); err != nil {
		return zero, err
	}

	if err := unit.Calendars().Save(ctx, cal); err != nil {
		return zero, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return zero, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, b, cal); err != nil {
		return zero, err
	}

	h.notify(ctx, b.GuestID, "Booking confirmed", fmt.Sprintf("Your stay %s is confirmed", b.Range))
	h.Log.InfoContext(ctx, "booking confirmed", "booking_id", b.ID, "rental_id", b.RentalID)

	return ConfirmBookingResult{BookingID: b.ID, Status: b.Status}, nil
}
