package rental_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/money"
)

var moderate = rental.CancellationPolicy{
	Kind: rental.PolicyModerate,
	Schedule: []rental.RefundSchedule{
		{DaysBeforeCheckIn: 30, RefundPercentage: 100},
		{DaysBeforeCheckIn: 7, RefundPercentage: 50},
	},
	GracePeriodHours: 24,
}

func TestScheduleMatchesLargestSatisfiedThreshold(t *testing.T) {
	total := money.Must(100000, "USD")
	checkIn := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	confirmedAt := checkIn.AddDate(0, 0, -12) // outside the grace window
	cancelAt := checkIn.AddDate(0, 0, -10)    // lead time of 10 days

	refund := moderate.ComputeRefund(total, confirmedAt, checkIn, cancelAt)

	assert.Equal(t, rental.RefundBySchedule, refund.Basis)
	require.NotNil(t, refund.Matched)
	assert.Equal(t, 7, refund.Matched.DaysBeforeCheckIn)
	assert.Equal(t, 50, refund.Percentage)
	assert.Equal(t, int64(50000), refund.Refundable.Amount)
	assert.Equal(t, int64(50000), refund.Forfeited.Amount)
}

func TestGracePeriodShortCircuitsSchedule(t *testing.T) {
	total := money.Must(100000, "USD")
	checkIn := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	confirmedAt := checkIn.AddDate(0, 0, -3)
	cancelAt := confirmedAt.Add(6 * time.Hour) // lead time of under 3 days: schedule would say 0%

	refund := moderate.ComputeRefund(total, confirmedAt, checkIn, cancelAt)

	assert.Equal(t, rental.RefundByGrace, refund.Basis)
	assert.Equal(t, 100, refund.Percentage)
	assert.Equal(t, total.Amount, refund.Refundable.Amount)
	assert.True(t, refund.Forfeited.IsZero())
}

func TestGraceDoesNotApplyAfterWindow(t *testing.T) {
	total := money.Must(100000, "USD")
	checkIn := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	confirmedAt := checkIn.AddDate(0, 0, -12)
	cancelAt := confirmedAt.Add(48 * time.Hour) // 2 days after confirmation, 24h grace

	refund := moderate.ComputeRefund(total, confirmedAt, checkIn, cancelAt)

	assert.Equal(t, rental.RefundBySchedule, refund.Basis)
	assert.Equal(t, 50, refund.Percentage)
}

func TestNoSatisfiedThresholdMeansNoRefund(t *testing.T) {
	total := money.Must(100000, "USD")
	checkIn := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	confirmedAt := checkIn.AddDate(0, 0, -60)
	cancelAt := checkIn.Add(-30 * time.Hour) // lead time of 1 day

	refund := moderate.ComputeRefund(total, confirmedAt, checkIn, cancelAt)

	assert.Equal(t, rental.RefundByNone, refund.Basis)
	assert.Equal(t, 0, refund.Percentage)
	assert.True(t, refund.Refundable.IsZero())
	assert.Equal(t, total.Amount, refund.Forfeited.Amount)
}

func TestNonRefundableIgnoresSchedule(t *testing.T) {
	policy := rental.CancellationPolicy{
		Kind:             rental.PolicyNonRefundable,
		Schedule:         []rental.RefundSchedule{{DaysBeforeCheckIn: 0, RefundPercentage: 100}},
		GracePeriodHours: 48,
	}
	total := money.Must(77700, "USD")
	checkIn := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)

	for _, lead := range []time.Duration{90 * 24 * time.Hour, 24 * time.Hour, time.Hour} {
		refund := policy.ComputeRefund(total, checkIn.Add(-lead-time.Hour), checkIn, checkIn.Add(-lead))
		assert.Equal(t, rental.RefundByNonRefundable, refund.Basis)
		assert.True(t, refund.Refundable.IsZero())
	}
}

func TestRefundRoundsDownAndConserves(t *testing.T) {
	policy := rental.CancellationPolicy{
		Kind:     rental.PolicyFlexible,
		Schedule: []rental.RefundSchedule{{DaysBeforeCheckIn: 1, RefundPercentage: 33}},
	}
	total := money.Must(10001, "USD")
	checkIn := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	confirmedAt := checkIn.AddDate(0, 0, -20)

	refund := policy.ComputeRefund(total, confirmedAt, checkIn, checkIn.AddDate(0, 0, -5))

	// 33% of 100.01 is 33.0033: refund floors to 33.00
	assert.Equal(t, int64(3300), refund.Refundable.Amount)
	assert.Equal(t, total.Amount, refund.Refundable.Amount+refund.Forfeited.Amount)
}

func TestEqualThresholdTieBreaksToSmallerPercentage(t *testing.T) {
	policy := rental.CancellationPolicy{
		Kind: rental.PolicyStrict,
		Schedule: []rental.RefundSchedule{
			{DaysBeforeCheckIn: 7, RefundPercentage: 80},
			{DaysBeforeCheckIn: 7, RefundPercentage: 50},
		},
	}
	checkIn := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	refund := policy.ComputeRefund(money.Must(10000, "USD"), checkIn.AddDate(0, 0, -30), checkIn, checkIn.AddDate(0, 0, -10))

	assert.Equal(t, 50, refund.Percentage)
}

func TestValidateRejectsBadSchedules(t *testing.T) {
	bad := rental.CancellationPolicy{Schedule: []rental.RefundSchedule{{DaysBeforeCheckIn: 7, RefundPercentage: 120}}}
	assert.ErrorIs(t, bad.Validate(), rental.ErrRefundPercentage)

	bad = rental.CancellationPolicy{Schedule: []rental.RefundSchedule{{DaysBeforeCheckIn: -1, RefundPercentage: 50}}}
	assert.ErrorIs(t, bad.Validate(), rental.ErrRefundThreshold)
}
