package bookinghandlers

import (
	"context"

	"staybook/internal/app/outbox"
	"staybook/internal/domain/booking"
)

// The lifecycle commands share one shape: load, transition, save. None of
// them touches the calendar; the nights stay owned until checkout day and
// fall off as they are consumed.

type CheckInBooking struct {
	IdemKey   string
	BookingID booking.BookingID
}

func (CheckInBooking) Key() string              { return CheckInBookingKey }
func (c CheckInBooking) IdempotencyKey() string { return c.IdemKey }

type CheckOutBooking struct {
	IdemKey   string
	BookingID booking.BookingID
}

func (CheckOutBooking) Key() string              { return CheckOutBookingKey }
func (c CheckOutBooking) IdempotencyKey() string { return c.IdemKey }

type CompleteBooking struct {
	IdemKey   string
	BookingID booking.BookingID
}

func (CompleteBooking) Key() string              { return CompleteBookingKey }
func (c CompleteBooking) IdempotencyKey() string { return c.IdemKey }

type DisputeBooking struct {
	IdemKey   string
	BookingID booking.BookingID
	RaisedBy  string
	Reason    string
}

func (DisputeBooking) Key() string              { return DisputeBookingKey }
func (c DisputeBooking) IdempotencyKey() string { return c.IdemKey }

type LifecycleResult struct {
	BookingID booking.BookingID
	Status    booking.Status
}

type lifecycle struct {
	Deps
}

func (h *lifecycle) run(ctx context.Context, id booking.BookingID, apply func(ctx context.Context, b *booking.Booking) error) (LifecycleResult, error) {
	var zero LifecycleResult
	unit, err := unitFrom(ctx)
	if err != nil {
		return zero, err
	}
	b, err := unit.Bookings().ByID(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := apply(ctx, b); err != nil {
		return zero, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return zero, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, b); err != nil {
		return zero, err
	}
	h.Log.InfoContext(ctx, "booking transitioned", "booking_id", b.ID, "status", b.Status)
	return LifecycleResult{BookingID: b.ID, Status: b.Status}, nil
}

type CheckInBookingHandler struct{ lifecycle }

func NewCheckInBookingHandler(deps Deps) *CheckInBookingHandler {
	deps.fill()
	return &CheckInBookingHandler{lifecycle{Deps: deps}}
}

func (h *CheckInBookingHandler) Handle(ctx context.Context, cmd CheckInBooking) (LifecycleResult, error) {
	return h.run(ctx, cmd.BookingID, func(_ context.Context, b *booking.Booking) error {
		return b.CheckIn(h.Clock().UTC())
	})
}

type CheckOutBookingHandler struct{ lifecycle }

func NewCheckOutBookingHandler(deps Deps) *CheckOutBookingHandler {
	deps.fill()
	return &CheckOutBookingHandler{lifecycle{Deps: deps}}
}

func (h *CheckOutBookingHandler) Handle(ctx context.Context, cmd CheckOutBooking) (LifecycleResult, error) {
	return h.run(ctx, cmd.BookingID, func(ctx context.Context, b *booking.Booking) error {
		now := h.Clock().UTC()
		if err := b.CheckOut(now); err != nil {
			return err
		}
		// Settle the hold once the guest has actually stayed.
		if b.Payment == booking.PaymentAuthorized && b.PaymentHold != "" {
			if err := h.Payments.Capture(ctx, b.PaymentHold, b.Price.Total); err != nil {
				return err
			}
			return b.MarkCaptured(now)
		}
		return nil
	})
}

type CompleteBookingHandler struct{ lifecycle }

func NewCompleteBookingHandler(deps Deps) *CompleteBookingHandler {
	deps.fill()
	return &CompleteBookingHandler{lifecycle{Deps: deps}}
}

func (h *CompleteBookingHandler) Handle(ctx context.Context, cmd CompleteBooking) (LifecycleResult, error) {
	return h.run(ctx, cmd.BookingID, func(_ context.Context, b *booking.Booking) error {
		return b.Complete(h.Clock().UTC())
	})
}

type DisputeBookingHandler struct{ lifecycle }

func NewDisputeBookingHandler(deps Deps) *DisputeBookingHandler {
	deps.fill()
	return &DisputeBookingHandler{lifecycle{Deps: deps}}
}

func (h *DisputeBookingHandler) Handle(ctx context.Context, cmd DisputeBooking) (LifecycleResult, error) {
	return h.run(ctx, cmd.BookingID, func(_ context.Context, b *booking.Booking) error {
		return b.Dispute(cmd.RaisedBy, cmd.Reason, h.Clock().UTC())
	})
}
