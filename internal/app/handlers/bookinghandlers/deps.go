// Package bookinghandlers implements the booking write-side commands. Every
// handler runs inside the unit of work opened by the transaction middleware
// and pairs each state transition with its calendar write.
package bookinghandlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
)

var (
	ErrNoUnitOfWork = errors.New("bookinghandlers: no unit of work on context")
	ErrNotBookable  = errors.New("bookinghandlers: stay cannot be booked")
)

const (
	RequestBookingKey  = "booking.request"
	ConfirmBookingKey  = "booking.confirm"
	CancelBookingKey   = "booking.cancel"
	CheckInBookingKey  = "booking.check_in"
	CheckOutBookingKey = "booking.check_out"
	CompleteBookingKey = "booking.complete"
	DisputeBookingKey  = "booking.dispute"
)

// Deps carries the shared collaborators of every booking handler.
type Deps struct {
	Outbox   outbox.Store
	Encoder  outbox.Encoder
	Payments policies.Payments
	Notifier policies.Notifier
	Log      *slog.Logger

	// NewID and Clock exist so tests can pin identifiers and time.
	NewID func() string
	Clock func() time.Time
}

func (d *Deps) fill() {
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Encoder == nil {
		d.Encoder = outbox.NewJSONEncoder()
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
}

func unitFrom(ctx context.Context) (uow.UnitOfWork, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, ErrNoUnitOfWork
	}
	return unit, nil
}

// notify delivers best-effort; a failed notification never fails the command.
func (d *Deps) notify(ctx context.Context, recipient, subject, body string) {
	if d.Notifier == nil {
		return
	}
	if err := d.Notifier.Send(ctx, recipient, subject, body); err != nil {
		d.Log.WarnContext(ctx, "notification failed", "recipient", recipient, "err", err)
	}
}
