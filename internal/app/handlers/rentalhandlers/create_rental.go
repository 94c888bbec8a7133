// Package rentalhandlers exposes the host-side rental commands: creating a
// listing and editing the parts the pricing engine reads (rates, fees,
// discounts, policy).
package rentalhandlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/uow"
	"staybook/internal/domain/rental"
)

var ErrNoUnitOfWork = errors.New("rentalhandlers: no unit of work on context")

const (
	CreateRentalKey = "rental.create"
	UpdateRatesKey  = "rental.update_rates"
)

type CreateRental struct {
	IdemKey string
	Params  rental.CreateParams
}

func (CreateRental) Key() string              { return CreateRentalKey }
func (c CreateRental) IdempotencyKey() string { return c.IdemKey }

type CreateRentalResult struct {
	RentalID rental.RentalID
}

type Deps struct {
	Log   *slog.Logger
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
	if d.Log == nil {
		d.Log = slog.Default()
	}
}

type CreateRentalHandler struct{ Deps }

func NewCreateRentalHandler(deps Deps) *CreateRentalHandler {
	deps.fill()
	return &CreateRentalHandler{Deps: deps}
}

func (h *CreateRentalHandler) Handle(ctx context.Context, cmd CreateRental) (CreateRentalResult, error) {
	var zero CreateRentalResult
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return zero, ErrNoUnitOfWork
	}
	params := cmd.Params
	if params.ID == "" {
		params.ID = rental.RentalID(h.NewID())
	}
	if params.Now.IsZero() {
		params.Now = h.Clock().UTC()
	}
	r, err := rental.NewRental(params)
	if err != nil {
		return zero, err
	}
	if err := unit.Rentals().Save(ctx, r); err != nil {
		return zero, err
	}
	h.Log.InfoContext(ctx, "rental created", "rental_id", r.ID, "owner_id", r.Owner)
	return CreateRentalResult{RentalID: r.ID}, nil
}

// UpdateRates replaces the rate-bearing configuration of a rental in one
// write: seasonal rates, fees, discounts and the cancellation policy.
type UpdateRates struct {
	IdemKey       string
	RentalID      rental.RentalID
	SeasonalRates []rental.SeasonalRate
	Fees          []rental.Fee
	Discounts     []rental.Discount
	Policy        *rental.CancellationPolicy
}

func (UpdateRates) Key() string              { return UpdateRatesKey }
func (c UpdateRates) IdempotencyKey() string { return c.IdemKey }

type UpdateRatesHandler struct{ Deps }

func NewUpdateRatesHandler(deps Deps) *UpdateRatesHandler {
	deps.fill()
	return &UpdateRatesHandler{Deps: deps}
}

func (h *UpdateRatesHandler) Handle(ctx context.Context, cmd UpdateRates) (struct{}, error) {
	var zero struct{}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return zero, ErrNoUnitOfWork
	}
	r, err := unit.Rentals().ByID(ctx, cmd.RentalID)
	if err != nil {
		return zero, err
	}
	if err := r.ReplaceTariffs(cmd.SeasonalRates, cmd.Fees, cmd.Discounts, h.Clock().UTC()); err != nil {
		return zero, err
	}
	if cmd.Policy != nil {
		if err := r.ReplacePolicy(*cmd.Policy, h.Clock().UTC()); err != nil {
			return zero, err
		}
	}
	if err := unit.Rentals().Save(ctx, r); err != nil {
		return zero, err
	}
	return zero, nil
}
