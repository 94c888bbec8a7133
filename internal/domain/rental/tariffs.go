package rental

import (
	"time"

	"staybook/internal/domain/shared/money"
)

// DiscountKind is a closed set; the fee & discount calculator matches over it
// exhaustively.
type DiscountKind string

const (
	DiscountWeekly     DiscountKind = "WEEKLY"
	DiscountMonthly    DiscountKind = "MONTHLY"
	DiscountEarlyBird  DiscountKind = "EARLY_BIRD"
	DiscountLastMinute DiscountKind = "LAST_MINUTE"
	DiscountLongStay   DiscountKind = "LONG_STAY"
	DiscountFirstTime  DiscountKind = "FIRST_TIME"
	DiscountSeasonal   DiscountKind = "SEASONAL"
)

// Discount reduces the pre-fee subtotal. Value is a whole percentage when
// IsPercentage is set, otherwise a fixed amount in minor units of the
// rental's currency.
type Discount struct {
	ID           string
	Kind         DiscountKind
	Value        int64
	IsPercentage bool
	MinimumStay  int       // 0 means no gate
	ValidFrom    time.Time // zero means open-ended
	ValidUntil   time.Time
	Active       bool
	Description  string
}

// AppliesAt reports whether the discount is live at the given moment.
// The nights gate is checked by the calculator, not here.
func (d Discount) AppliesAt(now time.Time) bool {
	if !d.Active {
		return false
	}
	if !d.ValidFrom.IsZero() && now.Before(d.ValidFrom) {
		return false
	}
	if !d.ValidUntil.IsZero() && now.After(d.ValidUntil) {
		return false
	}
	return true
}

type FeeKind string

const (
	FeeCleaning   FeeKind = "CLEANING"
	FeePet        FeeKind = "PET"
	FeeExtraGuest FeeKind = "EXTRA_GUEST"
	FeeParking    FeeKind = "PARKING"
	FeeWifi       FeeKind = "WIFI"
	FeeLinens     FeeKind = "LINENS"
	FeeOther      FeeKind = "OTHER"
)

// Fee is a one-time charge. Required fees are always added in full;
// pet and extra-guest fees scale with the matching guest dimension.
type Fee struct {
	ID       string
	Name     string
	Amount   money.Money
	Kind     FeeKind
	Required bool
}
