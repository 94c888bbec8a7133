package pricing

import (
	"errors"
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/calendar"
	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

var ErrRentalRequired = errors.New("pricing: rental and calendar are required")

type QuoteInput struct {
	Rental    *rental.Rental
	Calendar  *calendar.Calendar
	Range     daterange.DateRange
	Guests    availability.GuestCounts
	PromoCode string
	Now       time.Time
	// Taxes are supplied by the caller from external tax tables; the engine
	// itself has no tax-rate data and emits a zero placeholder otherwise.
	Taxes []TaxLine
}

// Quote computes the full itemized breakdown for a stay. It is a pure
// function of its inputs: identical inputs and an identical Now always yield
// an identical breakdown.
func Quote(in QuoteInput) (Breakdown, error) {
	if in.Rental == nil || in.Calendar == nil {
		return Breakdown{}, ErrRentalRequired
	}
	if err := in.Range.Validate(); err != nil {
		return Breakdown{}, err
	}

	nights, subtotal, err := ResolveRates(in.Rental, in.Calendar, in.Range)
	if err != nil {
		return Breakdown{}, err
	}

	discounts, discountTotal := applyDiscounts(in.Rental.Discounts, subtotal, in.Range.Nights(), in.PromoCode, in.Now)
	fees, feeTotal := applyFees(in.Rental, in.Guests)

	taxes := in.Taxes
	taxTotal := money.Zero(subtotal.Currency)
	if len(taxes) == 0 {
		taxes = []TaxLine{{Name: "taxes", Amount: money.Zero(subtotal.Currency)}}
	}
	for _, line := range taxes {
		sum, err := taxTotal.Add(line.Amount)
		if err != nil {
			return Breakdown{}, err
		}
		taxTotal = sum
	}

	total := money.Money{
		Amount:   subtotal.Amount - discountTotal.Amount + feeTotal.Amount + taxTotal.Amount,
		Currency: subtotal.Currency,
	}
	breakdown := Breakdown{
		Currency:        subtotal.Currency,
		Nights:          in.Range.Nights(),
		NightlyRates:    nights,
		Subtotal:        subtotal,
		Discounts:       discounts,
		DiscountTotal:   discountTotal,
		Fees:            fees,
		FeeTotal:        feeTotal,
		Taxes:           taxes,
		TaxTotal:        taxTotal,
		SecurityDeposit: in.Rental.Pricing.SecurityDeposit,
		Total:           total,
	}
	if err := breakdown.Verify(); err != nil {
		return Breakdown{}, err
	}
	return breakdown, nil
}

// applyDiscounts evaluates each discount independently against the pre-fee
// subtotal. Deductions sum (no compounding) and the running total is capped
// at the subtotal. A promo code matching a discount id pulls an otherwise
// locked (inactive) discount into consideration; unknown codes are ignored.
func applyDiscounts(candidates []rental.Discount, subtotal money.Money, nights int, promoCode string, now time.Time) ([]DiscountLine, money.Money) {
	lines := make([]DiscountLine, 0, len(candidates))
	applied := money.Zero(subtotal.Currency)
	for _, d := range candidates {
		unlocked := promoCode != "" && promoCode == d.ID
		if !d.AppliesAt(now) && !unlocked {
			continue
		}
		if unlocked && !withinWindow(d, now) {
			continue
		}
		if d.MinimumStay > 0 && nights < d.MinimumStay {
			continue
		}
		amount := discountAmount(d, subtotal)
		if remaining := subtotal.Amount - applied.Amount; amount.Amount > remaining {
			amount.Amount = remaining
		}
		if amount.Amount <= 0 {
			continue
		}
		applied, _ = applied.Add(amount)
		lines = append(lines, DiscountLine{
			DiscountID:  d.ID,
			Kind:        d.Kind,
			Amount:      amount,
			Description: describeDiscount(d),
		})
	}
	return lines, applied
}

func withinWindow(d rental.Discount, now time.Time) bool {
	if !d.ValidFrom.IsZero() && now.Before(d.ValidFrom) {
		return false
	}
	if !d.ValidUntil.IsZero() && now.After(d.ValidUntil) {
		return false
	}
	return true
}

func discountAmount(d rental.Discount, subtotal money.Money) money.Money {
	if d.IsPercentage {
		return subtotal.PercentHalfUp(float64(d.Value))
	}
	return money.Money{Amount: d.Value, Currency: subtotal.Currency}
}

func describeDiscount(d rental.Discount) string {
	if d.Description != "" {
		return d.Description
	}
	switch d.Kind {
	case rental.DiscountWeekly:
		return "weekly stay discount"
	case rental.DiscountMonthly:
		return "monthly stay discount"
	case rental.DiscountEarlyBird:
		return "early bird discount"
	case rental.DiscountLastMinute:
		return "last minute discount"
	case rental.DiscountLongStay:
		return "long stay discount"
	case rental.DiscountFirstTime:
		return "first booking discount"
	case rental.DiscountSeasonal:
		return "seasonal discount"
	default:
		return "discount"
	}
}

// applyFees charges required fees in full and scales the conditional kinds by
// their guest dimension: pet fees by pet count, extra-guest fees by guests
// above the rental's included-guest baseline.
func applyFees(r *rental.Rental, guests availability.GuestCounts) ([]FeeLine, money.Money) {
	currency := r.Pricing.BasePrice.Currency
	lines := make([]FeeLine, 0, len(r.Fees)+1)
	total := money.Zero(currency)
	add := func(line FeeLine) {
		if line.Amount.Amount <= 0 {
			return
		}
		total, _ = total.Add(line.Amount)
		lines = append(lines, line)
	}

	hasCleaningFee := false
	for _, fee := range r.Fees {
		switch fee.Kind {
		case rental.FeePet:
			if guests.Pets > 0 {
				add(FeeLine{FeeID: fee.ID, Name: fee.Name, Kind: fee.Kind, Amount: fee.Amount.Multiply(int64(guests.Pets))})
			}
		case rental.FeeExtraGuest:
			if extra := guests.Total() - r.Rules.IncludedGuests; r.Rules.IncludedGuests > 0 && extra > 0 {
				add(FeeLine{FeeID: fee.ID, Name: fee.Name, Kind: fee.Kind, Amount: fee.Amount.Multiply(int64(extra))})
			}
		case rental.FeeCleaning, rental.FeeParking, rental.FeeWifi, rental.FeeLinens, rental.FeeOther:
			if fee.Kind == rental.FeeCleaning {
				hasCleaningFee = true
			}
			if fee.Required {
				add(FeeLine{FeeID: fee.ID, Name: fee.Name, Kind: fee.Kind, Amount: fee.Amount})
			}
		}
	}
	if !hasCleaningFee && r.Pricing.CleaningFee.Amount > 0 {
		add(FeeLine{Name: "cleaning fee", Kind: rental.FeeCleaning, Amount: r.Pricing.CleaningFee})
	}
	return lines, total
}
