package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/booking"
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
		Title: "Lake cabin",
		Pricing: rental.Pricing{
			BasePrice:   money.Must(10000, "USD"),
			Unit:        rental.BillPerNight,
			MinimumStay: 1,
		},
		Rules: rental.HouseRules{MaxGuests: 4},
		Policy: rental.CancellationPolicy{
			Kind: rental.PolicyModerate,
			Schedule: []rental.RefundSchedule{
				{DaysBeforeCheckIn: 30, RefundPercentage: 100},
				{DaysBeforeCheckIn: 7, RefundPercentage: 50},
			},
			GracePeriodHours: 24,
		},
		Now: date(2026, 1, 1),
	})
	require.NoError(t, err)
	return r
}

func testBooking(t *testing.T, r *rental.Rental, checkIn, checkOut time.Time, now time.Time) *booking.Booking {
	t.Helper()
	dr, err := daterange.New(checkIn, checkOut)
	require.NoError(t, err)
	quote, err := pricing.Quote(pricing.QuoteInput{
		Rental:   r,
		Calendar: calendar.New(r.ID),
		Range:    dr,
		Guests:   availability.GuestCounts{Adults: 2},
		Now:      now,
	})
	require.NoError(t, err)
	b, err := booking.NewBooking(booking.CreateParams{
		ID:       "b-1",
		RentalID: r.ID,
		GuestID:  "g-1",
		OwnerID:  r.Owner,
		Range:    dr,
		Guests:   availability.GuestCounts{Adults: 2},
		Price:    quote,
		Policy:   r.Policy,
		Now:      now,
	})
	require.NoError(t, err)
	return b
}

func TestNewBookingStartsPending(t *testing.T) {
	r := testRental(t)
	b := testBooking(t, r, date(2026, 7, 10), date(2026, 7, 13), date(2026, 6, 1))

	assert.Equal(t, booking.StatusPending, b.Status)
	assert.Equal(t, booking.PaymentUnpaid, b.Payment)
	events := b.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "booking.requested", events[0].EventName())
}

func TestInstantBookConfirmsImmediately(t *testing.T) {
	r := testRental(t)
	dr, _ := daterange.New(date(2026, 7, 10), date(2026, 7, 13))
	quote, err := pricing.Quote(pricing.QuoteInput{
		Rental: r, Calendar: calendar.New(r.ID), Range: dr,
		Guests: availability.GuestCounts{Adults: 2}, Now: date(2026, 6, 1),
	})
	require.NoError(t, err)

	b, err := booking.NewBooking(booking.CreateParams{
		ID: "b-2", RentalID: r.ID, GuestID: "g-1", OwnerID: r.Owner,
		Range: dr, Guests: availability.GuestCounts{Adults: 2},
		Price: quote, Policy: r.Policy,
		InstantBook: true, PaymentHold: "hold-1",
		Now: date(2026, 6, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, b.Status)
	assert.Equal(t, booking.PaymentAuthorized, b.Payment)
}

func TestConfirmRequiresPaymentHold(t *testing.T) {
	r := testRental(t)
	b := testBooking(t, r, date(2026, 7, 10), date(2026, 7, 13), date(2026, 6, 1))

	err := b.Confirm("", date(2026, 6, 2))
	assert.ErrorIs(t, err, booking.ErrPaymentHoldRequired)

	require.NoError(t, b.Confirm("hold-1", date(2026, 6, 2)))
	assert.Equal(t, booking.StatusConfirmed, b.Status)

	err = b.Confirm("hold-2", date(2026, 6, 3))
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
}

func TestNormalLifecycle(t *testing.T) {
	r := testRental(t)
	b := testBooking(t, r, date(2026, 7, 10), date(2026, 7, 13), date(2026, 6, 1))

	require.NoError(t, b.Confirm("hold-1", date(2026, 6, 2)))
	require.NoError(t, b.CheckIn(date(2026, 7, 10)))
	require.NoError(t, b.CheckOut(date(2026, 7, 13)))
	require.NoError(t, b.Complete(date(2026, 7, 20)))
	assert.Equal(t, booking.StatusCompleted, b.Status)

	assert.ErrorIs(t, b.CheckIn(date(2026, 7, 21)), booking.ErrInvalidTransition)
	_, err := b.Cancel("g-1", "too late", date(2026, 7, 21))
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
}

func TestLifecycleSkipsAreRejected(t *testing.T) {
	r := testRental(t)
	b := testBooking(t, r, date(2026, 7, 10), date(2026, 7, 13), date(2026, 6, 1))

	assert.ErrorIs(t, b.CheckIn(date(2026, 7, 10)), booking.ErrInvalidTransition)
	assert.ErrorIs(t, b.CheckOut(date(2026, 7, 13)), booking.ErrInvalidTransition)
	assert.ErrorIs(t, b.Complete(date(2026, 7, 14)), booking.ErrInvalidTransition)
}

func TestCancelFromPendingHasNoRefund(t *testing.T) {
	r := testRental(t)
	b := testBooking(t, r, date(2026, 7, 10), date(2026, 7, 13), date(2026, 6, 1))

	rec, err := b.Cancel("g-1", "changed plans", date(2026, 6, 2))
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, b.Status)
	assert.True(t, rec.Refund.Refundable.IsZero())
	assert.Same(t, rec, b.Cancellation, "exactly one cancellation record")
	assert.True(t, rec.ReleaseFrom.IsZero())
}

func TestCancelFromConfirmedAppliesSchedule(t *testing.T) {
	r := testRental(t)
	b := testBooking(t, r, date(2026, 7, 10), date(2026, 7, 13), date(2026, 6, 1))
	require.NoError(t, b.Confirm("hold-1", date(2026, 6, 28)))

	// lead time of 10 days: the {7, 50} entry applies
	rec, err := b.Cancel("g-1", "trip cancelled", date(2026, 6, 30))
	require.NoError(t, err)
	assert.Equal(t, rental.RefundBySchedule, rec.Refund.Basis)
	assert.Equal(t, 50, rec.Refund.Percentage)
	assert.Equal(t, b.Price.Total.Amount, rec.Refund.Refundable.Amount+rec.Refund.Forfeited.Amount)
	assert.Equal(t, booking.PaymentPartial, b.Payment)
}

func TestCancelWithinGraceRefundsEverything(t *testing.T) {
	r := testRental(t)
	b := testBooking(t, r, date(2026, 7, 10), date(2026, 7, 13), date(2026, 6, 1))
	require.NoError(t, b.Confirm("hold-1", date(2026, 6, 2)))

	rec, err := b.Cancel("g-1", "typo in dates", date(2026, 6, 2).Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, rental.RefundByGrace, rec.Refund.Basis)
	assert.Equal(t, b.Price.Total.Amount, rec.Refund.Refundable.Amount)
	assert.Equal(t, booking.PaymentRefunded, b.Payment)
}

func TestCancelAfterCheckInReleasesRemainingNights(t *testing.T) {
	r := testRental(t)
	b := testBooking(t, r, date(2026, 7, 10), date(2026, 7, 15), date(2026, 6, 1))
	require.NoError(t, b.Confirm("hold-1", date(2026, 6, 2)))
	require.NoError(t, b.CheckIn(date(2026, 7, 10)))

	rec, err := b.Cancel("g-1", "emergency", date(2026, 7, 12))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 7, 12), rec.ReleaseFrom)
}

func TestDisputeFreezesFromAnyState(t *testing.T) {
	r := testRental(t)
	b := testBooking(t, r, date(2026, 7, 10), date(2026, 7, 13), date(2026, 6, 1))

	require.NoError(t, b.Dispute("o-1", "damage claim", date(2026, 7, 14)))
	assert.Equal(t, booking.StatusDisputed, b.Status)

	assert.ErrorIs(t, b.CheckIn(date(2026, 7, 15)), booking.ErrInvalidTransition)
	_, err := b.Cancel("g-1", "void", date(2026, 7, 15))
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
	assert.ErrorIs(t, b.Dispute("o-1", "again", date(2026, 7, 16)), booking.ErrInvalidTransition)
}

func TestRefundPreviewDoesNotMutate(t *testing.T) {
	r := testRental(t)
	b := testBooking(t, r, date(2026, 7, 10), date(2026, 7, 13), date(2026, 6, 1))
	require.NoError(t, b.Confirm("hold-1", date(2026, 6, 2)))

	preview := b.RefundPreview(date(2026, 7, 8))
	assert.Equal(t, booking.StatusConfirmed, b.Status)
	assert.Nil(t, b.Cancellation)
	assert.GreaterOrEqual(t, preview.Refundable.Amount, int64(0))
	assert.LessOrEqual(t, preview.Refundable.Amount, b.Price.Total.Amount)
}
