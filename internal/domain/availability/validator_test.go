package availability_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/calendar"
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
		Title: "City loft",
		Pricing: rental.Pricing{
			BasePrice:   money.Must(10000, "USD"),
			Unit:        rental.BillPerNight,
			MinimumStay: 2,
			MaximumStay: 14,
		},
		Rules: rental.HouseRules{MaxGuests: 4, AllowChildren: true},
		Availability: rental.AvailabilityRules{
			AdvanceNoticeHours: 24,
			MaxAdvanceDays:     365,
		},
		Policy: rental.CancellationPolicy{Kind: rental.PolicyFlexible},
		Now:    date(2026, 1, 1),
	})
	require.NoError(t, err)
	return r
}

func request(t *testing.T, from, to time.Time, guests availability.GuestCounts, now time.Time) availability.Request {
	t.Helper()
	dr, err := daterange.New(from, to)
	require.NoError(t, err)
	return availability.Request{Range: dr, Guests: guests, Now: now}
}

func TestValidStayPasses(t *testing.T) {
	r := testRental(t)
	cal := calendar.New(r.ID)

	res := availability.Validate(r, cal, request(t,
		date(2026, 6, 10), date(2026, 6, 13),
		availability.GuestCounts{Adults: 2},
		date(2026, 6, 1)))

	assert.True(t, res.OK())
	assert.Equal(t, 3, res.Range.Nights())
}

func TestInvalidDateRange(t *testing.T) {
	r := testRental(t)
	cal := calendar.New(r.ID)

	res := availability.Validate(r, cal, availability.Request{
		Range:  daterange.DateRange{CheckIn: date(2026, 6, 13), CheckOut: date(2026, 6, 10)},
		Guests: availability.GuestCounts{Adults: 2},
		Now:    date(2026, 6, 1),
	})
	assert.Equal(t, availability.ReasonInvalidDateRange, res.Reason)
}

func TestStayLengthBounds(t *testing.T) {
	r := testRental(t)
	cal := calendar.New(r.ID)
	now := date(2026, 6, 1)

	res := availability.Validate(r, cal, request(t, date(2026, 6, 10), date(2026, 6, 11), availability.GuestCounts{Adults: 1}, now))
	assert.Equal(t, availability.ReasonStayTooShort, res.Reason)

	res = availability.Validate(r, cal, request(t, date(2026, 6, 10), date(2026, 6, 30), availability.GuestCounts{Adults: 1}, now))
	assert.Equal(t, availability.ReasonStayTooLong, res.Reason)
}

func TestPerDayMinStayOverrideRaisesMinimum(t *testing.T) {
	r := testRental(t)
	cal := calendar.New(r.ID)
	cal.SetMinStayOverride(date(2026, 6, 11), 5)

	res := availability.Validate(r, cal, request(t, date(2026, 6, 10), date(2026, 6, 13), availability.GuestCounts{Adults: 1}, date(2026, 6, 1)))
	assert.Equal(t, availability.ReasonStayTooShort, res.Reason)
}

func TestLeadTimeChecks(t *testing.T) {
	r := testRental(t)
	cal := calendar.New(r.ID)
	guests := availability.GuestCounts{Adults: 1}

	// inside the 24h advance notice
	res := availability.Validate(r, cal, request(t, date(2026, 6, 10), date(2026, 6, 13), guests, date(2026, 6, 9).Add(20*time.Hour)))
	assert.Equal(t, availability.ReasonLeadTimeViolation, res.Reason)

	// beyond the max advance window
	res = availability.Validate(r, cal, request(t, date(2028, 6, 10), date(2028, 6, 13), guests, date(2026, 6, 1)))
	assert.Equal(t, availability.ReasonLeadTimeViolation, res.Reason)
}

func TestGuestCapacityAndHouseRules(t *testing.T) {
	r := testRental(t)
	cal := calendar.New(r.ID)
	now := date(2026, 6, 1)
	from, to := date(2026, 6, 10), date(2026, 6, 13)

	res := availability.Validate(r, cal, request(t, from, to, availability.GuestCounts{Adults: 3, Children: 2}, now))
	assert.Equal(t, availability.ReasonGuestCapacityExceeded, res.Reason)

	res = availability.Validate(r, cal, request(t, from, to, availability.GuestCounts{Adults: 2, Pets: 1}, now))
	assert.Equal(t, availability.ReasonHouseRuleViolation, res.Reason)

	res = availability.Validate(r, cal, request(t, from, to, availability.GuestCounts{Adults: 2, Infants: 1}, now))
	assert.Equal(t, availability.ReasonHouseRuleViolation, res.Reason)
}

func TestBlockedAndBookedDatesUnavailable(t *testing.T) {
	r := testRental(t)
	cal := calendar.New(r.ID)
	now := date(2026, 6, 1)
	guests := availability.GuestCounts{Adults: 2}

	blocked, _ := daterange.New(date(2026, 6, 11), date(2026, 6, 12))
	require.NoError(t, cal.Block(blocked, "maintenance", now))
	res := availability.Validate(r, cal, request(t, date(2026, 6, 10), date(2026, 6, 13), guests, now))
	assert.Equal(t, availability.ReasonDatesUnavailable, res.Reason)

	r2 := testRental(t)
	r2.Availability.BlockedDates = []time.Time{date(2026, 6, 12)}
	res = availability.Validate(r2, calendar.New(r2.ID), request(t, date(2026, 6, 10), date(2026, 6, 13), guests, now))
	assert.Equal(t, availability.ReasonDatesUnavailable, res.Reason)

	cal2 := calendar.New(r.ID)
	taken, _ := daterange.New(date(2026, 6, 12), date(2026, 6, 14))
	require.NoError(t, cal2.Reserve(taken, "b-1", now))
	res = availability.Validate(r, cal2, request(t, date(2026, 6, 10), date(2026, 6, 13), guests, now))
	assert.Equal(t, availability.ReasonDatesUnavailable, res.Reason)
}

func TestPreparationBufferConflicts(t *testing.T) {
	r := testRental(t)
	r.Availability.PreparationDays = 1
	cal := calendar.New(r.ID)
	now := date(2026, 6, 1)
	guests := availability.GuestCounts{Adults: 2}

	existing, _ := daterange.New(date(2026, 6, 8), date(2026, 6, 10))
	require.NoError(t, cal.Reserve(existing, "b-1", now))

	// candidate starts the day the previous stay checks out: prep buffer hits
	res := availability.Validate(r, cal, request(t, date(2026, 6, 10), date(2026, 6, 13), guests, now))
	assert.Equal(t, availability.ReasonDatesUnavailable, res.Reason)

	// one day of gap satisfies the buffer
	res = availability.Validate(r, cal, request(t, date(2026, 6, 11), date(2026, 6, 14), guests, now))
	assert.True(t, res.OK())

	// candidate checking out the day the next stay begins also hits the buffer
	res = availability.Validate(r, cal, request(t, date(2026, 6, 4), date(2026, 6, 8), guests, now))
	assert.Equal(t, availability.ReasonDatesUnavailable, res.Reason)
}
