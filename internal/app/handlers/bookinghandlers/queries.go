package bookinghandlers

import (
	"context"
	"time"

	"staybook/internal/app/uow"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/rental"
)

const (
	GetBookingKey        = "booking.get"
	ListGuestBookingsKey = "booking.list_by_guest"
	RefundPreviewKey     = "booking.refund_preview"
)

type GetBooking struct {
	BookingID booking.BookingID
}

func (GetBooking) Key() string { return GetBookingKey }

type ListGuestBookings struct {
	GuestID string
}

func (ListGuestBookings) Key() string { return ListGuestBookingsKey }

// RefundPreview asks what cancelling right now would return, without
// touching the booking.
type RefundPreview struct {
	BookingID booking.BookingID
}

func (RefundPreview) Key() string { return RefundPreviewKey }

type ReadHandler struct {
	Factory uow.Factory
	Clock   func() time.Time
}

func NewReadHandler(factory uow.Factory) *ReadHandler {
	return &ReadHandler{Factory: factory, Clock: time.Now}
}

func (h *ReadHandler) readOnly(ctx context.Context) (uow.UnitOfWork, error) {
	return h.Factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
}

type GetBookingHandler struct{ *ReadHandler }

func (h GetBookingHandler) Handle(ctx context.Context, q GetBooking) (*booking.Booking, error) {
	unit, err := h.readOnly(ctx)
	if err != nil {
		return nil, err
	}
	defer unit.Rollback(ctx)
	return unit.Bookings().ByID(ctx, q.BookingID)
}

type ListGuestBookingsHandler struct{ *ReadHandler }

func (h ListGuestBookingsHandler) Handle(ctx context.Context, q ListGuestBookings) ([]*booking.Booking, error) {
	unit, err := h.readOnly(ctx)
	if err != nil {
		return nil, err
	}
	defer unit.Rollback(ctx)
	return unit.Bookings().ListByGuest(ctx, q.GuestID)
}

type RefundPreviewHandler struct{ *ReadHandler }

func (h RefundPreviewHandler) Handle(ctx context.Context, q RefundPreview) (rental.Refund, error) {
	unit, err := h.readOnly(ctx)
	if err != nil {
		return rental.Refund{}, err
	}
	defer unit.Rollback(ctx)
	b, err := unit.Bookings().ByID(ctx, q.BookingID)
	if err != nil {
		return rental.Refund{}, err
	}
	return b.RefundPreview(h.Clock().UTC()), nil
}
