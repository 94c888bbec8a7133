// Package uow defines the unit-of-work port the application layer uses to
// group repository writes into one atomic commit.
package uow

import (
	"context"
	"errors"

	"staybook/internal/domain/booking"
	"staybook/internal/domain/calendar"
	"staybook/internal/domain/rental"
)

var ErrAlreadyFinished = errors.New("uow: transaction already finished")

// TxOptions tune how the unit of work is opened.
type TxOptions struct {
	// ReadOnly marks the unit as observation-only; Commit becomes a no-op.
	ReadOnly bool
}

// UnitOfWork exposes the repositories bound to one logical transaction.
// All writes made through them become visible together on Commit.
type UnitOfWork interface {
	Rentals() rental.Repository
	Calendars() calendar.Repository
	Bookings() booking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory opens fresh units of work.
type Factory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}
