package calendarhandlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

var ErrNoUnitOfWork = errors.New("calendarhandlers: no unit of work on context")

const (
	BlockDaysKey     = "calendar.block"
	UnblockDaysKey   = "calendar.unblock"
	SetDayPricingKey = "calendar.set_day_pricing"
)

type BlockDays struct {
	IdemKey  string
	RentalID rental.RentalID
	From     time.Time
	To       time.Time
	Reason   string
}

func (BlockDays) Key() string              { return BlockDaysKey }
func (c BlockDays) IdempotencyKey() string { return c.IdemKey }

type UnblockDays struct {
	IdemKey  string
	RentalID rental.RentalID
	From     time.Time
	To       time.Time
}

func (UnblockDays) Key() string              { return UnblockDaysKey }
func (c UnblockDays) IdempotencyKey() string { return c.IdemKey }

// SetDayPricing pins a per-date price override and/or minimum stay. A nil
// Price leaves the existing override alone; MinStay zero leaves the minimum.
type SetDayPricing struct {
	IdemKey  string
	RentalID rental.RentalID
	Date     time.Time
	Price    *money.Money
	MinStay  int
}

func (SetDayPricing) Key() string              { return SetDayPricingKey }
func (c SetDayPricing) IdempotencyKey() string { return c.IdemKey }

// Deps carries what every calendar write needs.
type Deps struct {
	Outbox  outbox.Store
	Encoder outbox.Encoder
	Log     *slog.Logger
	Clock   func() time.Time
}

func (d *Deps) fill() {
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

type BlockDaysHandler struct{ Deps }

func NewBlockDaysHandler(deps Deps) *BlockDaysHandler {
	deps.fill()
	return &BlockDaysHandler{Deps: deps}
}

func (h *BlockDaysHandler) Handle(ctx context.Context, cmd BlockDays) (struct{}, error) {
	var zero struct{}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return zero, ErrNoUnitOfWork
	}
	cal, err := unit.Calendars().ForRental(ctx, cmd.RentalID)
	if err != nil {
		return zero, err
	}
	dr, err := daterange.New(cmd.From, cmd.To)
	if err != nil {
		return zero, err
	}
	if err := cal.Block(dr, cmd.Reason, h.Clock().UTC()); err != nil {
		return zero, err
	}
	if err := unit.Calendars().Save(ctx, cal); err != nil {
		return zero, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, cal); err != nil {
		return zero, err
	}
	h.Log.InfoContext(ctx, "days blocked", "rental_id", cmd.RentalID, "nights", dr.Nights(), "reason", cmd.Reason)
	return zero, nil
}

type UnblockDaysHandler struct{ Deps }

func NewUnblockDaysHandler(deps Deps) *UnblockDaysHandler {
	deps.fill()
	return &UnblockDaysHandler{Deps: deps}
}

func (h *UnblockDaysHandler) Handle(ctx context.Context, cmd UnblockDays) (struct{}, error) {
	var zero struct{}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return zero, ErrNoUnitOfWork
	}
	cal, err := unit.Calendars().ForRental(ctx, cmd.RentalID)
	if err != nil {
		return zero, err
	}
	dr, err := daterange.New(cmd.From, cmd.To)
	if err != nil {
		return zero, err
	}
	cal.Unblock(dr, h.Clock().UTC())
	if err := unit.Calendars().Save(ctx, cal); err != nil {
		return zero, err
	}
	return zero, nil
}

type SetDayPricingHandler struct{ Deps }

func NewSetDayPricingHandler(deps Deps) *SetDayPricingHandler {
	deps.fill()
	return &SetDayPricingHandler{Deps: deps}
}

func (h *SetDayPricingHandler) Handle(ctx context.Context, cmd SetDayPricing) (struct{}, error) {
	var zero struct{}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return zero, ErrNoUnitOfWork
	}
	cal, err := unit.Calendars().ForRental(ctx, cmd.RentalID)
	if err != nil {
		return zero, err
	}
	if cmd.Price != nil {
		cal.SetPriceOverride(cmd.Date, *cmd.Price)
	}
	if cmd.MinStay > 0 {
		cal.SetMinStayOverride(cmd.Date, cmd.MinStay)
	}
	if err := unit.Calendars().Save(ctx, cal); err != nil {
		return zero, err
	}
	return zero, nil
}
