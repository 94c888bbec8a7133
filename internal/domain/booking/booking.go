package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
)

var (
	ErrInvalidTransition   = errors.New("booking: invalid state transition")
	ErrBookingNotFound     = errors.New("booking: not found")
	ErrGuestRequired       = errors.New("booking: guest id required")
	ErrGuestsCount         = errors.New("booking: at least one adult is required")
	ErrPaymentHoldRequired = errors.New("booking: payment hold required before confirmation")
)

type BookingID string

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusCancelled  Status = "CANCELLED"
	StatusCompleted  Status = "COMPLETED"
	StatusDisputed   Status = "DISPUTED"
)

type PaymentState string

const (
	PaymentUnpaid     PaymentState = "UNPAID"
	PaymentAuthorized PaymentState = "AUTHORIZED"
	PaymentCaptured   PaymentState = "CAPTURED"
	PaymentRefunded   PaymentState = "REFUNDED"
	PaymentPartial    PaymentState = "PARTIALLY_REFUNDED"
)

// Cancellation is the single audit record a booking carries once cancelled.
type Cancellation struct {
	CancelledBy string
	Reason      string
	At          time.Time
	Refund      rental.Refund
	ReleaseFrom time.Time // zero means release the whole stay
}

// Booking aggregates one stay. It is created in pending (or confirmed when
// instant-book payment authorization succeeded synchronously), mutated only
// through its transition methods, and never deleted.
type Booking struct {
	ID           BookingID
	RentalID     rental.RentalID
	GuestID      string
	OwnerID      rental.OwnerID
	Range        daterange.DateRange
	Guests       availability.GuestCounts
	Price        pricing.Breakdown
	Policy       rental.CancellationPolicy
	Status       Status
	Payment      PaymentState
	PaymentHold  string
	Cancellation *Cancellation
	CreatedAt    time.Time
	ConfirmedAt  time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
}

type CreateParams struct {
	ID          BookingID
	RentalID    rental.RentalID
	GuestID     string
	OwnerID     rental.OwnerID
	Range       daterange.DateRange
	Guests      availability.GuestCounts
	Price       pricing.Breakdown
	Policy      rental.CancellationPolicy
	InstantBook bool
	PaymentHold string
	Now         time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if params.GuestID == "" {
		return nil, ErrGuestRequired
	}
	if params.Guests.Adults < 1 {
		return nil, ErrGuestsCount
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if err := params.Price.Verify(); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	b := &Booking{
		ID:        params.ID,
		RentalID:  params.RentalID,
		GuestID:   params.GuestID,
		OwnerID:   params.OwnerID,
		Range:     params.Range,
		Guests:    params.Guests,
		Price:     params.Price.Copy(),
		Policy:    params.Policy,
		Status:    StatusPending,
		Payment:   PaymentUnpaid,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(Requested{BookingID: b.ID, RentalID: b.RentalID, GuestID: b.GuestID, Range: b.Range, Total: b.Price.Total, At: now})
	if params.InstantBook && params.PaymentHold != "" {
		if err := b.Confirm(params.PaymentHold, now); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Confirm moves pending to confirmed. The caller must pair this transition
// with exactly one calendar reservation.
func (b *Booking) Confirm(paymentHoldID string, now time.Time) error {
	if b.Status != StatusPending {
		return transitionErr(b.Status, StatusConfirmed)
	}
	if b.Price.Total.Amount > 0 && paymentHoldID == "" {
		return ErrPaymentHoldRequired
	}
	b.PaymentHold = paymentHoldID
	b.Payment = PaymentAuthorized
	b.Status = StatusConfirmed
	b.ConfirmedAt = now.UTC()
	b.UpdatedAt = b.ConfirmedAt
	b.Record(Confirmed{BookingID: b.ID, RentalID: b.RentalID, Range: b.Range, Total: b.Price.Total, At: b.UpdatedAt})
	return nil
}

// MarkCaptured records that payment moved from an authorization hold to a
// captured charge.
func (b *Booking) MarkCaptured(now time.Time) error {
	if b.Payment != PaymentAuthorized {
		return fmt.Errorf("booking: cannot capture payment in state %s", b.Payment)
	}
	b.Payment = PaymentCaptured
	b.UpdatedAt = now.UTC()
	return nil
}

// RefundPreview computes what a cancellation at the given moment would
// return, without changing any state.
func (b *Booking) RefundPreview(cancelAt time.Time) rental.Refund {
	return b.Policy.ComputeRefund(b.Price.Total, b.ConfirmedAt, b.Range.CheckIn, cancelAt)
}

// Cancel transitions to cancelled and produces the booking's single
// cancellation record.
//
// From pending no calendar reservation ever happened and no payment was
// captured, so the record carries a zero refund over a zero basis. From
// confirmed or checked-in the refund schedule applies; after check-in only
// the unconsumed nights are released (ReleaseFrom is set for the caller's
// calendar release).
func (b *Booking) Cancel(cancelledBy, reason string, cancelAt time.Time) (*Cancellation, error) {
	cancelAt = cancelAt.UTC()
	switch b.Status {
	case StatusPending:
		rec := &Cancellation{
			CancelledBy: cancelledBy,
			Reason:      reason,
			At:          cancelAt,
			Refund:      rental.Refund{Basis: rental.RefundByNone},
		}
		b.applyCancellation(rec)
		return rec, nil
	case StatusConfirmed, StatusCheckedIn:
		rec := &Cancellation{
			CancelledBy: cancelledBy,
			Reason:      reason,
			At:          cancelAt,
			Refund:      b.RefundPreview(cancelAt),
		}
		if b.Status == StatusCheckedIn {
			if remaining, ok := b.Range.TrimBefore(cancelAt); ok {
				rec.ReleaseFrom = remaining.CheckIn
			} else {
				rec.ReleaseFrom = b.Range.CheckOut
			}
		}
		b.applyCancellation(rec)
		return rec, nil
	default:
		return nil, transitionErr(b.Status, StatusCancelled)
	}
}

func (b *Booking) applyCancellation(rec *Cancellation) {
	b.Status = StatusCancelled
	b.Cancellation = rec
	b.UpdatedAt = rec.At
	if rec.Refund.Refundable.Amount > 0 {
		if rec.Refund.Forfeited.Amount == 0 {
			b.Payment = PaymentRefunded
		} else {
			b.Payment = PaymentPartial
		}
	}
	b.Record(Cancelled{BookingID: b.ID, RentalID: b.RentalID, Refund: rec.Refund.Refundable, Forfeited: rec.Refund.Forfeited, Reason: rec.Reason, At: rec.At})
}

func (b *Booking) CheckIn(now time.Time) error {
	if b.Status != StatusConfirmed {
		return transitionErr(b.Status, StatusCheckedIn)
	}
	b.Status = StatusCheckedIn
	b.UpdatedAt = now.UTC()
	b.Record(CheckedIn{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) CheckOut(now time.Time) error {
	if b.Status != StatusCheckedIn {
		return transitionErr(b.Status, StatusCheckedOut)
	}
	b.Status = StatusCheckedOut
	b.UpdatedAt = now.UTC()
	b.Record(CheckedOut{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// Complete closes a checked-out stay once the review window closes or a
// review is submitted (an external trigger either way).
func (b *Booking) Complete(now time.Time) error {
	if b.Status != StatusCheckedOut {
		return transitionErr(b.Status, StatusCompleted)
	}
	b.Status = StatusCompleted
	b.UpdatedAt = now.UTC()
	b.Record(Completed{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// Dispute freezes the booking for manual resolution. Any state can enter it;
// nothing leaves it automatically.
func (b *Booking) Dispute(raisedBy, reason string, now time.Time) error {
	if b.Status == StatusDisputed {
		return transitionErr(b.Status, StatusDisputed)
	}
	b.Status = StatusDisputed
	b.UpdatedAt = now.UTC()
	b.Record(Disputed{BookingID: b.ID, RaisedBy: raisedBy, Reason: reason, At: b.UpdatedAt})
	return nil
}

func transitionErr(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
