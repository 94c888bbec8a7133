package pricing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/calendar"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testRental(t *testing.T) *rental.Rental {
	t.Helper()
	r, err := rental.NewRental(rental.CreateParams{
		ID:    "r-1",
		Owner: "o-1",
		Title: "Seaside cottage",
		Pricing: rental.Pricing{
			BasePrice:   money.Must(10000, "USD"), // $100/night
			Unit:        rental.BillPerNight,
			MinimumStay: 1,
		},
		Rules: rental.HouseRules{MaxGuests: 6, IncludedGuests: 2, AllowChildren: true, AllowPets: true},
		Policy: rental.CancellationPolicy{
			Kind:     rental.PolicyFlexible,
			Schedule: []rental.RefundSchedule{{DaysBeforeCheckIn: 1, RefundPercentage: 100}},
		},
		Now: date(2026, 1, 1),
	})
	require.NoError(t, err)
	return r
}

func stay(t *testing.T, from, to time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(from, to)
	require.NoError(t, err)
	return dr
}

func TestResolveRatesOneEntryPerNight(t *testing.T) {
	r := testRental(t)
	cal := calendar.New(r.ID)
	dr := stay(t, date(2026, 6, 1), date(2026, 6, 8))

	nights, subtotal, err := pricing.ResolveRates(r, cal, dr)
	require.NoError(t, err)

	require.Len(t, nights, 7)
	for _, night := range nights {
		assert.Positive(t, night.Price.Amount)
	}
	assert.Equal(t, int64(70000), subtotal.Amount)
}

func TestSeasonalMultiplierAppliesPerNight(t *testing.T) {
	r := testRental(t)
	// multiplier 1.5 covering the last 6 nights of a 10-night stay
	r.SeasonalRates = []rental.SeasonalRate{{
		ID:         "summer",
		Start:      date(2026, 6, 5),
		End:        date(2026, 6, 10),
		Multiplier: 1.5,
		Active:     true,
	}}
	cal := calendar.New(r.ID)
	dr := stay(t, date(2026, 6, 1), date(2026, 6, 11))

	nights, subtotal, err := pricing.ResolveRates(r, cal, dr)
	require.NoError(t, err)

	// 4 x 100 + 6 x 150 = 1300
	assert.Equal(t, int64(130000), subtotal.Amount)
	assert.Equal(t, int64(10000), nights[3].Price.Amount)
	assert.Equal(t, int64(15000), nights[4].Price.Amount)
	assert.Equal(t, "summer", nights[4].SeasonalRateID)
}

func TestOverlappingSeasonalRatesLastInListWins(t *testing.T) {
	r := testRental(t)
	r.SeasonalRates = []rental.SeasonalRate{
		{ID: "early", Start: date(2026, 6, 1), End: date(2026, 6, 30), Multiplier: 1.2, Active: true},
		{ID: "late", Start: date(2026, 6, 1), End: date(2026, 6, 30), Multiplier: 2, Active: true},
		{ID: "inactive", Start: date(2026, 6, 1), End: date(2026, 6, 30), Multiplier: 3, Active: false},
	}
	cal := calendar.New(r.ID)

	nights, _, err := pricing.ResolveRates(r, cal, stay(t, date(2026, 6, 1), date(2026, 6, 2)))
	require.NoError(t, err)
	assert.Equal(t, "late", nights[0].SeasonalRateID)
	assert.Equal(t, int64(20000), nights[0].Price.Amount)
}

func TestPerDayOverrideWinsOverSeasonalRate(t *testing.T) {
	r := testRental(t)
	r.SeasonalRates = []rental.SeasonalRate{{ID: "s", Start: date(2026, 6, 1), End: date(2026, 6, 30), Multiplier: 2, Active: true}}
	cal := calendar.New(r.ID)
	cal.SetPriceOverride(date(2026, 6, 2), money.Must(7500, "USD"))

	nights, subtotal, err := pricing.ResolveRates(r, cal, stay(t, date(2026, 6, 1), date(2026, 6, 3)))
	require.NoError(t, err)

	assert.Equal(t, int64(20000), nights[0].Price.Amount)
	assert.True(t, nights[1].Overridden)
	assert.Equal(t, int64(7500), nights[1].Price.Amount, "override skips the multiplier")
	assert.Equal(t, int64(27500), subtotal.Amount)
}

func TestWeeklyBasePriceNormalizesToNightly(t *testing.T) {
	r := testRental(t)
	r.Pricing.BasePrice = money.Must(70000, "USD") // $700/week
	r.Pricing.Unit = rental.BillPerWeek
	cal := calendar.New(r.ID)

	_, subtotal, err := pricing.ResolveRates(r, cal, stay(t, date(2026, 6, 1), date(2026, 6, 3)))
	require.NoError(t, err)
	assert.Equal(t, int64(20000), subtotal.Amount)
}

func TestRateGapSurfacesAsError(t *testing.T) {
	r := testRental(t)
	r.Pricing.BasePrice = money.Money{Amount: 0, Currency: "USD"}
	cal := calendar.New(r.ID)

	_, _, err := pricing.ResolveRates(r, cal, stay(t, date(2026, 6, 1), date(2026, 6, 3)))
	assert.ErrorIs(t, err, pricing.ErrRateGap)
}

func TestDiscountBelowMinimumStayNotApplied(t *testing.T) {
	r := testRental(t)
	r.Discounts = []rental.Discount{{
		ID: "weekly", Kind: rental.DiscountWeekly, Value: 10, IsPercentage: true,
		MinimumStay: 7, Active: true,
	}}

	quote, err := pricing.Quote(pricing.QuoteInput{
		Rental:   r,
		Calendar: calendar.New(r.ID),
		Range:    stay(t, date(2026, 6, 1), date(2026, 6, 4)),
		Guests:   availability.GuestCounts{Adults: 2},
		Now:      date(2026, 5, 1),
	})
	require.NoError(t, err)

	assert.Empty(t, quote.Discounts)
	assert.Equal(t, int64(30000), quote.Subtotal.Amount)
	assert.Equal(t, int64(30000), quote.Total.Amount)
}

func TestDiscountAppliedWhenStayQualifies(t *testing.T) {
	r := testRental(t)
	r.Discounts = []rental.Discount{{
		ID: "weekly", Kind: rental.DiscountWeekly, Value: 10, IsPercentage: true,
		MinimumStay: 7, Active: true,
	}}

	quote, err := pricing.Quote(pricing.QuoteInput{
		Rental:   r,
		Calendar: calendar.New(r.ID),
		Range:    stay(t, date(2026, 6, 1), date(2026, 6, 8)),
		Guests:   availability.GuestCounts{Adults: 2},
		Now:      date(2026, 5, 1),
	})
	require.NoError(t, err)

	require.Len(t, quote.Discounts, 1)
	assert.Equal(t, int64(7000), quote.DiscountTotal.Amount)
	assert.Equal(t, int64(63000), quote.Total.Amount)
}

func TestDiscountsSumAndCapAtSubtotal(t *testing.T) {
	r := testRental(t)
	r.Discounts = []rental.Discount{
		{ID: "a", Kind: rental.DiscountLongStay, Value: 60, IsPercentage: true, Active: true},
		{ID: "b", Kind: rental.DiscountSeasonal, Value: 100000, IsPercentage: false, Active: true},
	}

	quote, err := pricing.Quote(pricing.QuoteInput{
		Rental:   r,
		Calendar: calendar.New(r.ID),
		Range:    stay(t, date(2026, 6, 1), date(2026, 6, 4)),
		Guests:   availability.GuestCounts{Adults: 1},
		Now:      date(2026, 5, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, quote.Subtotal.Amount, quote.DiscountTotal.Amount, "discounts never exceed the subtotal")
	assert.Equal(t, int64(0), quote.Total.Amount)
}

func TestPromoCodeUnlocksInactiveDiscount(t *testing.T) {
	r := testRental(t)
	r.Discounts = []rental.Discount{{
		ID: "SUMMER26", Kind: rental.DiscountSeasonal, Value: 20, IsPercentage: true, Active: false,
	}}
	input := pricing.QuoteInput{
		Rental:   r,
		Calendar: calendar.New(r.ID),
		Range:    stay(t, date(2026, 6, 1), date(2026, 6, 4)),
		Guests:   availability.GuestCounts{Adults: 2},
		Now:      date(2026, 5, 1),
	}

	quote, err := pricing.Quote(input)
	require.NoError(t, err)
	assert.Empty(t, quote.Discounts)

	input.PromoCode = "SUMMER26"
	quote, err = pricing.Quote(input)
	require.NoError(t, err)
	require.Len(t, quote.Discounts, 1)
	assert.Equal(t, int64(6000), quote.DiscountTotal.Amount)

	input.PromoCode = "NO-SUCH-CODE"
	quote, err = pricing.Quote(input)
	require.NoError(t, err, "unknown promo codes are ignored, not an error")
	assert.Empty(t, quote.Discounts)
}

func TestConditionalFeesScaleWithGuestDimension(t *testing.T) {
	r := testRental(t)
	r.Fees = []rental.Fee{
		{ID: "f-clean", Name: "cleaning", Kind: rental.FeeCleaning, Amount: money.Must(5000, "USD"), Required: true},
		{ID: "f-pet", Name: "pet fee", Kind: rental.FeePet, Amount: money.Must(2500, "USD")},
		{ID: "f-extra", Name: "extra guest", Kind: rental.FeeExtraGuest, Amount: money.Must(1500, "USD")},
		{ID: "f-park", Name: "parking", Kind: rental.FeeParking, Amount: money.Must(1000, "USD")}, // optional, not charged
	}

	quote, err := pricing.Quote(pricing.QuoteInput{
		Rental:   r,
		Calendar: calendar.New(r.ID),
		Range:    stay(t, date(2026, 6, 1), date(2026, 6, 3)),
		Guests:   availability.GuestCounts{Adults: 3, Children: 1, Pets: 2}, // 2 guests above the included 2
		Now:      date(2026, 5, 1),
	})
	require.NoError(t, err)

	require.Len(t, quote.Fees, 3)
	byKind := map[rental.FeeKind]int64{}
	for _, fee := range quote.Fees {
		byKind[fee.Kind] = fee.Amount.Amount
	}
	assert.Equal(t, int64(5000), byKind[rental.FeeCleaning])
	assert.Equal(t, int64(5000), byKind[rental.FeePet], "pet fee times two pets")
	assert.Equal(t, int64(3000), byKind[rental.FeeExtraGuest], "extra-guest fee times two extras")
	assert.Equal(t, int64(13000), quote.FeeTotal.Amount)
}

func TestCleaningFeeFromPricingConfig(t *testing.T) {
	r := testRental(t)
	r.Pricing.CleaningFee = money.Must(4000, "USD")

	quote, err := pricing.Quote(pricing.QuoteInput{
		Rental:   r,
		Calendar: calendar.New(r.ID),
		Range:    stay(t, date(2026, 6, 1), date(2026, 6, 3)),
		Guests:   availability.GuestCounts{Adults: 2},
		Now:      date(2026, 5, 1),
	})
	require.NoError(t, err)

	require.Len(t, quote.Fees, 1)
	assert.Equal(t, rental.FeeCleaning, quote.Fees[0].Kind)
	assert.Equal(t, int64(24000), quote.Total.Amount)
}

func TestQuoteIsDeterministic(t *testing.T) {
	r := testRental(t)
	r.SeasonalRates = []rental.SeasonalRate{{ID: "s", Start: date(2026, 6, 1), End: date(2026, 6, 30), Multiplier: 1.25, Active: true}}
	r.Discounts = []rental.Discount{{ID: "d", Kind: rental.DiscountLongStay, Value: 5, IsPercentage: true, Active: true}}
	r.Fees = []rental.Fee{{ID: "f", Name: "cleaning", Kind: rental.FeeCleaning, Amount: money.Must(5000, "USD"), Required: true}}
	input := pricing.QuoteInput{
		Rental:   r,
		Calendar: calendar.New(r.ID),
		Range:    stay(t, date(2026, 6, 1), date(2026, 6, 9)),
		Guests:   availability.GuestCounts{Adults: 2},
		Now:      date(2026, 5, 15),
	}

	first, err := pricing.Quote(input)
	require.NoError(t, err)
	second, err := pricing.Quote(input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBreakdownRoundTripIdentity(t *testing.T) {
	r := testRental(t)
	r.Discounts = []rental.Discount{{ID: "d", Kind: rental.DiscountLongStay, Value: 7, IsPercentage: true, Active: true}}
	r.Fees = []rental.Fee{{ID: "f", Name: "cleaning", Kind: rental.FeeCleaning, Amount: money.Must(3333, "USD"), Required: true}}

	quote, err := pricing.Quote(pricing.QuoteInput{
		Rental:   r,
		Calendar: calendar.New(r.ID),
		Range:    stay(t, date(2026, 6, 1), date(2026, 6, 6)),
		Guests:   availability.GuestCounts{Adults: 2},
		Now:      date(2026, 5, 1),
	})
	require.NoError(t, err)

	require.NoError(t, quote.Verify())
	assert.Equal(t,
		quote.Subtotal.Amount-quote.DiscountTotal.Amount+quote.FeeTotal.Amount+quote.TaxTotal.Amount,
		quote.Total.Amount)
}

func TestDiscountMonotonicity(t *testing.T) {
	base := func(percent int64) int64 {
		r := testRental(t)
		r.Discounts = []rental.Discount{{ID: "d", Kind: rental.DiscountLongStay, Value: percent, IsPercentage: true, Active: true}}
		quote, err := pricing.Quote(pricing.QuoteInput{
			Rental:   r,
			Calendar: calendar.New(r.ID),
			Range:    stay(t, date(2026, 6, 1), date(2026, 6, 6)),
			Guests:   availability.GuestCounts{Adults: 2},
			Now:      date(2026, 5, 1),
		})
		require.NoError(t, err)
		return quote.Total.Amount
	}

	prev := base(0)
	for _, percent := range []int64{5, 10, 25, 50, 100} {
		current := base(percent)
		assert.LessOrEqual(t, current, prev, "raising a discount must never raise the total")
		prev = current
	}
}
