package rental

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
)

var (
	ErrRentalNotFound    = errors.New("rental: not found")
	ErrTitleRequired     = errors.New("rental: title is required")
	ErrOwnerRequired     = errors.New("rental: owner is required")
	ErrBasePrice         = errors.New("rental: base price must be positive")
	ErrMinimumStay       = errors.New("rental: minimum stay must be at least 1 night")
	ErrStayRange         = errors.New("rental: maximum stay must be >= minimum stay")
	ErrGuestsLimit       = errors.New("rental: max guests must be at least 1")
	ErrSeasonalRange     = errors.New("rental: seasonal rate end date must not precede start date")
	ErrSeasonalMultiplier = errors.New("rental: seasonal multiplier must be positive")
)

type RentalID string
type OwnerID string

// BillingUnit is the unit the base price is quoted in. The engine bills
// per night; other units are normalized before rate resolution.
type BillingUnit string

const (
	BillPerNight BillingUnit = "NIGHT"
	BillPerWeek  BillingUnit = "WEEK"
	BillPerMonth BillingUnit = "MONTH"
	BillPerYear  BillingUnit = "YEAR"
)

type Pricing struct {
	BasePrice       money.Money
	Unit            BillingUnit
	SecurityDeposit money.Money
	CleaningFee     money.Money
	MinimumStay     int
	MaximumStay     int // 0 means no upper bound
}

// NightlyBase returns the base price normalized to an equivalent nightly
// rate, rounding half-up to the minor unit.
func (p Pricing) NightlyBase() money.Money {
	switch p.Unit {
	case BillPerWeek:
		return p.BasePrice.MulFloatHalfUp(1.0 / 7)
	case BillPerMonth:
		return p.BasePrice.MulFloatHalfUp(1.0 / 30)
	case BillPerYear:
		return p.BasePrice.MulFloatHalfUp(1.0 / 365)
	default:
		return p.BasePrice
	}
}

// SeasonalRate overlays a price multiplier on a closed date interval
// [Start, End]. Overlaps between active rates are allowed in storage; the
// rate resolver picks the last matching entry in list order.
type SeasonalRate struct {
	ID         string
	Name       string
	Start      time.Time
	End        time.Time
	Multiplier float64
	Active     bool
}

// Covers reports whether the rate's inclusive window contains the date.
func (s SeasonalRate) Covers(d time.Time) bool {
	d = daterange.Day(d)
	return !d.Before(daterange.Day(s.Start)) && !d.After(daterange.Day(s.End))
}

type HouseRules struct {
	MaxGuests      int
	IncludedGuests int // guests above this count incur the extra-guest fee; 0 disables it
	AllowChildren  bool
	AllowInfants   bool
	AllowPets      bool
	AllowSmoking   bool
	AllowParties   bool
}

type AvailabilityRules struct {
	InstantBook        bool
	AdvanceNoticeHours int
	PreparationDays    int
	CheckInTime        string
	CheckOutTime       string
	BlockedDates       []time.Time
	MinAdvanceDays     int
	MaxAdvanceDays     int // 0 means no upper bound
}

// DateBlocked reports whether the owner explicitly blocked the date.
func (a AvailabilityRules) DateBlocked(d time.Time) bool {
	d = daterange.Day(d)
	for _, blocked := range a.BlockedDates {
		if daterange.Day(blocked).Equal(d) {
			return true
		}
	}
	return false
}

type Rental struct {
	ID            RentalID
	Owner         OwnerID
	Title         string
	Pricing       Pricing
	SeasonalRates []SeasonalRate
	Discounts     []Discount
	Fees          []Fee
	Rules         HouseRules
	Availability  AvailabilityRules
	Policy        CancellationPolicy
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id RentalID) (*Rental, error)
	Save(ctx context.Context, r *Rental) error
}

type CreateParams struct {
	ID            RentalID
	Owner         OwnerID
	Title         string
	Pricing       Pricing
	SeasonalRates []SeasonalRate
	Discounts     []Discount
	Fees          []Fee
	Rules         HouseRules
	Availability  AvailabilityRules
	Policy        CancellationPolicy
	Now           time.Time
}

func NewRental(params CreateParams) (*Rental, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("rental: id is required")
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.Pricing.BasePrice.Amount <= 0 {
		return nil, ErrBasePrice
	}
	if params.Pricing.MinimumStay < 1 {
		return nil, ErrMinimumStay
	}
	if params.Pricing.MaximumStay != 0 && params.Pricing.MaximumStay < params.Pricing.MinimumStay {
		return nil, ErrStayRange
	}
	if params.Rules.MaxGuests < 1 {
		return nil, ErrGuestsLimit
	}
	for _, rate := range params.SeasonalRates {
		if daterange.Day(rate.End).Before(daterange.Day(rate.Start)) {
			return nil, ErrSeasonalRange
		}
		if rate.Multiplier <= 0 {
			return nil, ErrSeasonalMultiplier
		}
	}
	if err := params.Policy.Validate(); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	return &Rental{
		ID:            params.ID,
		Owner:         params.Owner,
		Title:         params.Title,
		Pricing:       params.Pricing,
		SeasonalRates: params.SeasonalRates,
		Discounts:     params.Discounts,
		Fees:          params.Fees,
		Rules:         params.Rules,
		Availability:  params.Availability,
		Policy:        params.Policy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ReplaceTariffs swaps the rate-bearing configuration in one write. Existing
// bookings keep their priced snapshot; only future quotes see the change.
func (r *Rental) ReplaceTariffs(rates []SeasonalRate, fees []Fee, discounts []Discount, now time.Time) error {
	for _, rate := range rates {
		if daterange.Day(rate.End).Before(daterange.Day(rate.Start)) {
			return ErrSeasonalRange
		}
		if rate.Multiplier <= 0 {
			return ErrSeasonalMultiplier
		}
	}
	r.SeasonalRates = rates
	r.Fees = fees
	r.Discounts = discounts
	r.UpdatedAt = now.UTC()
	return nil
}

// ReplacePolicy swaps the cancellation policy. Bookings already created keep
// the policy snapshot they were confirmed under.
func (r *Rental) ReplacePolicy(policy CancellationPolicy, now time.Time) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	r.Policy = policy
	r.UpdatedAt = now.UTC()
	return nil
}
