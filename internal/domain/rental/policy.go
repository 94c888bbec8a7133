package rental

import (
	"errors"
	"sort"
	"time"

	"staybook/internal/domain/shared/money"
)

var (
	ErrRefundPercentage = errors.New("rental: refund percentage must be between 0 and 100")
	ErrRefundThreshold  = errors.New("rental: refund threshold days must not be negative")
)

type PolicyKind string

const (
	PolicyFlexible      PolicyKind = "FLEXIBLE"
	PolicyModerate      PolicyKind = "MODERATE"
	PolicyStrict        PolicyKind = "STRICT"
	PolicySuperStrict   PolicyKind = "SUPER_STRICT"
	PolicyNonRefundable PolicyKind = "NON_REFUNDABLE"
)

// RefundSchedule reads "cancel at least DaysBeforeCheckIn days ahead and
// RefundPercentage% comes back".
type RefundSchedule struct {
	DaysBeforeCheckIn int
	RefundPercentage  int
}

type CancellationPolicy struct {
	Kind             PolicyKind
	Description      string
	Schedule         []RefundSchedule
	GracePeriodHours int
}

func (p CancellationPolicy) Validate() error {
	for _, entry := range p.Schedule {
		if entry.RefundPercentage < 0 || entry.RefundPercentage > 100 {
			return ErrRefundPercentage
		}
		if entry.DaysBeforeCheckIn < 0 {
			return ErrRefundThreshold
		}
	}
	return nil
}

// RefundBasis records which rule produced the refund, for audit trails.
type RefundBasis string

const (
	RefundByGrace         RefundBasis = "GRACE"
	RefundBySchedule      RefundBasis = "SCHEDULE"
	RefundByNone          RefundBasis = "NONE"
	RefundByNonRefundable RefundBasis = "NON_REFUNDABLE"
)

type Refund struct {
	Refundable money.Money
	Forfeited  money.Money
	Percentage int
	Basis      RefundBasis
	Matched    *RefundSchedule
}

// ComputeRefund splits the paid total into refundable and forfeited parts.
//
// The grace window runs from confirmation: cancelling within GracePeriodHours
// of confirmedAt, before check-in, refunds everything regardless of the
// schedule. Otherwise the lead time in whole days selects the largest
// satisfied threshold; no satisfied threshold means no refund. The refund is
// rounded down to the minor unit so rounding never over-refunds.
func (p CancellationPolicy) ComputeRefund(total money.Money, confirmedAt, checkIn, cancelAt time.Time) Refund {
	if p.Kind == PolicyNonRefundable {
		return refundOf(total, 0, RefundByNonRefundable, nil)
	}
	if p.GracePeriodHours > 0 && !confirmedAt.IsZero() && cancelAt.Before(checkIn) {
		if cancelAt.Sub(confirmedAt) <= time.Duration(p.GracePeriodHours)*time.Hour {
			return refundOf(total, 100, RefundByGrace, nil)
		}
	}
	lead := checkIn.Sub(cancelAt)
	if lead < 0 {
		return refundOf(total, 0, RefundByNone, nil)
	}
	leadDays := int(lead.Hours() / 24)

	entries := append([]RefundSchedule(nil), p.Schedule...)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DaysBeforeCheckIn != entries[j].DaysBeforeCheckIn {
			return entries[i].DaysBeforeCheckIn > entries[j].DaysBeforeCheckIn
		}
		return entries[i].RefundPercentage < entries[j].RefundPercentage
	})
	for i := range entries {
		if entries[i].DaysBeforeCheckIn <= leadDays {
			matched := entries[i]
			return refundOf(total, matched.RefundPercentage, RefundBySchedule, &matched)
		}
	}
	return refundOf(total, 0, RefundByNone, nil)
}

func refundOf(total money.Money, percent int, basis RefundBasis, matched *RefundSchedule) Refund {
	refundable := total.PercentFloor(percent)
	forfeited, _ := total.Sub(refundable)
	return Refund{
		Refundable: refundable,
		Forfeited:  forfeited,
		Percentage: percent,
		Basis:      basis,
		Matched:    matched,
	}
}
