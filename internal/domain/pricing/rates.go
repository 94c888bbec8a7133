package pricing

import (
	"errors"
	"fmt"
	"time"

	"staybook/internal/domain/calendar"
	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

// ErrRateGap signals a date with no resolvable positive price. This is a
// data-integrity problem upstream, not a user error, and must surface loudly.
var ErrRateGap = errors.New("pricing: no resolvable rate for date")

// NightlyRate is one resolved night of the stay.
type NightlyRate struct {
	Date           time.Time
	Price          money.Money
	SeasonalRateID string
	Overridden     bool
}

// ResolveRates prices every night of the range. An explicit per-day override
// wins unconditionally and skips seasonal multipliers; otherwise the base
// nightly rate is scaled by the matching active seasonal rate, rounded
// half-up to the minor unit. The resolver never mutates calendar state.
func ResolveRates(r *rental.Rental, cal *calendar.Calendar, dr daterange.DateRange) ([]NightlyRate, money.Money, error) {
	base := r.Pricing.NightlyBase()
	subtotal := money.Zero(base.Currency)
	nights := make([]NightlyRate, 0, dr.Nights())
	for _, date := range dr.Dates() {
		night := NightlyRate{Date: date}
		if override := cal.Day(date).PriceOverride; override != nil {
			night.Price = *override
			night.Overridden = true
		} else {
			night.Price = base
			if rate := pickSeasonalRate(r.SeasonalRates, date); rate != nil {
				night.Price = base.MulFloatHalfUp(rate.Multiplier)
				night.SeasonalRateID = rate.ID
			}
		}
		if night.Price.Amount <= 0 {
			return nil, money.Money{}, fmt.Errorf("%w: %s", ErrRateGap, date.Format("2006-01-02"))
		}
		sum, err := subtotal.Add(night.Price)
		if err != nil {
			return nil, money.Money{}, fmt.Errorf("pricing: rate for %s: %w", date.Format("2006-01-02"), err)
		}
		subtotal = sum
		nights = append(nights, night)
	}
	return nights, subtotal, nil
}

// pickSeasonalRate selects among active rates covering the date. Overlaps are
// permitted in storage, so the last matching entry in list order wins as the
// deterministic tie-break.
func pickSeasonalRate(rates []rental.SeasonalRate, d time.Time) *rental.SeasonalRate {
	var picked *rental.SeasonalRate
	for i := range rates {
		if rates[i].Active && rates[i].Covers(d) {
			picked = &rates[i]
		}
	}
	return picked
}
