package pricing

import (
	"errors"

	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/money"
)

var (
	ErrCurrencyUnset  = errors.New("pricing: currency must be defined")
	ErrTotalMismatch  = errors.New("pricing: line items do not add up to total")
	ErrNegativeAmount = errors.New("pricing: line amounts cannot be negative")
)

type DiscountLine struct {
	DiscountID  string
	Kind        rental.DiscountKind
	Amount      money.Money
	Description string
}

type FeeLine struct {
	FeeID  string
	Name   string
	Kind   rental.FeeKind
	Amount money.Money
}

// TaxLine is the extension point of the calculator: the engine emits a zero
// placeholder and callers fill real lines from external tax tables.
type TaxLine struct {
	Name   string
	Amount money.Money
}

// Breakdown is the itemized quote for a stay. It is created once per request
// and never mutated; modified stays re-derive a fresh one.
type Breakdown struct {
	Currency        string
	Nights          int
	NightlyRates    []NightlyRate
	Subtotal        money.Money
	Discounts       []DiscountLine
	DiscountTotal   money.Money
	Fees            []FeeLine
	FeeTotal        money.Money
	Taxes           []TaxLine
	TaxTotal        money.Money
	SecurityDeposit money.Money // held separately, never part of Total
	Total           money.Money
}

// Verify checks the audit identity total = subtotal - discounts + fees + taxes
// to the cent, plus basic shape invariants.
func (b Breakdown) Verify() error {
	if b.Currency == "" {
		return ErrCurrencyUnset
	}
	if b.Nights <= 0 || len(b.NightlyRates) != b.Nights {
		return errors.New("pricing: breakdown must carry one rate per night")
	}
	discounts := money.Zero(b.Currency)
	for _, line := range b.Discounts {
		if line.Amount.IsNegative() {
			return ErrNegativeAmount
		}
		discounts, _ = discounts.Add(line.Amount)
	}
	fees := money.Zero(b.Currency)
	for _, line := range b.Fees {
		if line.Amount.IsNegative() {
			return ErrNegativeAmount
		}
		fees, _ = fees.Add(line.Amount)
	}
	taxes := money.Zero(b.Currency)
	for _, line := range b.Taxes {
		if line.Amount.IsNegative() {
			return ErrNegativeAmount
		}
		taxes, _ = taxes.Add(line.Amount)
	}
	if discounts != b.DiscountTotal || fees != b.FeeTotal || taxes != b.TaxTotal {
		return ErrTotalMismatch
	}
	want := b.Subtotal.Amount - discounts.Amount + fees.Amount + taxes.Amount
	if want != b.Total.Amount {
		return ErrTotalMismatch
	}
	return nil
}

// Copy returns a deep copy so booking snapshots cannot alias quote slices.
func (b Breakdown) Copy() Breakdown {
	clone := b
	clone.NightlyRates = append([]NightlyRate(nil), b.NightlyRates...)
	clone.Discounts = append([]DiscountLine(nil), b.Discounts...)
	clone.Fees = append([]FeeLine(nil), b.Fees...)
	clone.Taxes = append([]TaxLine(nil), b.Taxes...)
	return clone
}
