// Package pricinghandlers answers quote queries: a full price breakdown for
// a prospective stay, preceded by the same availability screen a booking
// request would run.
package pricinghandlers

import (
	"context"
	"time"

	"staybook/internal/app/uow"
	"staybook/internal/domain/availability"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/daterange"
)

const GetQuoteKey = "pricing.quote"

type GetQuote struct {
	RentalID  rental.RentalID
	CheckIn   time.Time
	CheckOut  time.Time
	Guests    availability.GuestCounts
	PromoCode string
	Taxes     []pricing.TaxLine
}

func (GetQuote) Key() string { return GetQuoteKey }

// QuoteView pairs the availability verdict with the breakdown. When the stay
// is not bookable the breakdown is absent and Availability says why.
type QuoteView struct {
	Availability availability.Result
	Breakdown    *pricing.Breakdown
}

type GetQuoteHandler struct {
	Factory uow.Factory
	Clock   func() time.Time
}

func NewGetQuoteHandler(factory uow.Factory) *GetQuoteHandler {
	return &GetQuoteHandler{Factory: factory, Clock: time.Now}
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuote) (QuoteView, error) {
	var zero QuoteView
	unit, err := h.Factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return zero, err
	}
	defer unit.Rollback(ctx)
	now := h.Clock().UTC()

	rent, err := unit.Rentals().ByID(ctx, q.RentalID)
	if err != nil {
		return zero, err
	}
	cal, err := unit.Calendars().ForRental(ctx, q.RentalID)
	if err != nil {
		return zero, err
	}
	dr, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return zero, err
	}

	check := availability.Validate(rent, cal, availability.Request{Range: dr, Guests: q.Guests, Now: now})
	if !check.OK() {
		return QuoteView{Availability: check}, nil
	}

	breakdown, err := pricing.Quote(pricing.QuoteInput{
		Rental:    rent,
		Calendar:  cal,
		Range:     dr,
		Guests:    q.Guests,
		PromoCode: q.PromoCode,
		Taxes:     q.Taxes,
		Now:       now,
	})
	if err != nil {
		return zero, err
	}
	return QuoteView{Availability: check, Breakdown: &breakdown}, nil
}
