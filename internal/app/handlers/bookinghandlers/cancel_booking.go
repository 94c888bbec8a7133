package bookinghandlers

import (
	"context"
	"errors"
	"fmt"

	"staybook/internal/app/outbox"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/calendar"
	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/money"
)

// CancelBooking cancels a stay, releases its calendar days (all of them, or
// only the unconsumed tail after check-in) and refunds whatever the policy
// grants.
type CancelBooking struct {
	IdemKey     string
	BookingID   booking.BookingID
	CancelledBy string
	Reason      string
}

func (CancelBooking) Key() string              { return CancelBookingKey }
func (c CancelBooking) IdempotencyKey() string { return c.IdemKey }

type CancelBookingResult struct {
	BookingID booking.BookingID
	Refund    money.Money
	Forfeited money.Money
	Basis     rental.RefundBasis
}

type CancelBookingHandler struct {
	Deps
}

func NewCancelBookingHandler(deps Deps) *CancelBookingHandler {
	deps.fill()
	return &CancelBookingHandler{Deps: deps}
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBooking) (CancelBookingResult, error) {
	var zero CancelBookingResult
	unit, err := unitFrom(ctx)
	if err != nil {
		return zero, err
	}
	now := h.Clock().UTC()

	b, err := unit.Bookings().ByID(ctx, cmd.BookingID)
	if err != nil {
		return zero, err
	}
	wasReserved := b.Status == booking.StatusConfirmed || b.Status == booking.StatusCheckedIn

	rec, err := b.Cancel(cmd.CancelledBy, cmd.Reason, now)
	if err != nil {
		return zero, err
	}

	// Only bookings that reached confirmed ever wrote to the calendar.
	if wasReserved {
		cal, err := unit.Calendars().ForRental(ctx, b.RentalID)
		if err != nil {
			return zero, err
		}
		// Every night may already be consumed when a checked-in stay is
		// cancelled on its last day; that leaves nothing to give back.
		if err := cal.Release(string(b.ID), rec.ReleaseFrom, now); err != nil && !errors.Is(err, calendar.ErrNothingToRelease) {
			return zero, err
		}
		if err := unit.Calendars().Save(ctx, cal); err != nil {
			return zero, err
		}
		if err := outbox.Drain(ctx, h.Outbox, h.Encoder, cal); err != nil {
			return zero, err
		}
	}

	if rec.Refund.Refundable.Amount > 0 && b.PaymentHold != "" {
		if err := h.Payments.Refund(ctx, b.PaymentHold, rec.Refund.Refundable); err != nil {
			return zero, fmt.Errorf("bookinghandlers: refund: %w", err)
		}
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		return zero, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, b); err != nil {
		return zero, err
	}

	h.notify(ctx, string(b.OwnerID), "Booking cancelled", fmt.Sprintf("Booking %s was cancelled", b.ID))
	h.Log.InfoContext(ctx, "booking cancelled",
		"booking_id", b.ID, "basis", rec.Refund.Basis, "refund", rec.Refund.Refundable.Amount)

	return CancelBookingResult{
		BookingID: b.ID,
		Refund:    rec.Refund.Refundable,
		Forfeited: rec.Refund.Forfeited,
		Basis:     rec.Refund.Basis,
	}, nil
}
