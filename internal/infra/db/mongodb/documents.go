package mongodb

import (
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/calendar"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

type moneyDoc struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func toMoneyDoc(m money.Money) moneyDoc       { return moneyDoc{Amount: m.Amount, Currency: m.Currency} }
func (d moneyDoc) toDomain() money.Money      { return money.Money{Amount: d.Amount, Currency: d.Currency} }

type seasonalRateDoc struct {
	ID         string    `bson:"id"`
	Name       string    `bson:"name"`
	Start      time.Time `bson:"start"`
	End        time.Time `bson:"end"`
	Multiplier float64   `bson:"multiplier"`
	Active     bool      `bson:"active"`
}

type discountDoc struct {
	ID           string    `bson:"id"`
	Kind         string    `bson:"kind"`
	Value        int64     `bson:"value"`
	IsPercentage bool      `bson:"is_percentage"`
	MinimumStay  int       `bson:"minimum_stay"`
	ValidFrom    time.Time `bson:"valid_from,omitempty"`
	ValidUntil   time.Time `bson:"valid_until,omitempty"`
	Active       bool      `bson:"active"`
	Description  string    `bson:"description,omitempty"`
}

type feeDoc struct {
	ID       string   `bson:"id"`
	Name     string   `bson:"name"`
	Amount   moneyDoc `bson:"amount"`
	Kind     string   `bson:"kind"`
	Required bool     `bson:"required"`
}

type refundScheduleDoc struct {
	DaysBeforeCheckIn int `bson:"days_before_check_in"`
	RefundPercentage  int `bson:"refund_percentage"`
}

type policyDoc struct {
	Kind             string              `bson:"kind"`
	Description      string              `bson:"description,omitempty"`
	Schedule         []refundScheduleDoc `bson:"schedule,omitempty"`
	GracePeriodHours int                 `bson:"grace_period_hours"`
}

func toPolicyDoc(p rental.CancellationPolicy) policyDoc {
	doc := policyDoc{Kind: string(p.Kind), Description: p.Description, GracePeriodHours: p.GracePeriodHours}
	for _, e := range p.Schedule {
		doc.Schedule = append(doc.Schedule, refundScheduleDoc(e))
	}
	return doc
}

func (d policyDoc) toDomain() rental.CancellationPolicy {
	p := rental.CancellationPolicy{Kind: rental.PolicyKind(d.Kind), Description: d.Description, GracePeriodHours: d.GracePeriodHours}
	for _, e := range d.Schedule {
		p.Schedule = append(p.Schedule, rental.RefundSchedule(e))
	}
	return p
}

type rentalDoc struct {
	ID    string `bson:"_id"`
	Owner string `bson:"owner_id"`
	Title string `bson:"title"`

	BasePrice       moneyDoc `bson:"base_price"`
	BillingUnit     string   `bson:"billing_unit"`
	SecurityDeposit moneyDoc `bson:"security_deposit"`
	CleaningFee     moneyDoc `bson:"cleaning_fee"`
	MinimumStay     int      `bson:"minimum_stay"`
	MaximumStay     int      `bson:"maximum_stay"`

	SeasonalRates []seasonalRateDoc `bson:"seasonal_rates,omitempty"`
	Discounts     []discountDoc     `bson:"discounts,omitempty"`
	Fees          []feeDoc          `bson:"fees,omitempty"`

	MaxGuests      int  `bson:"max_guests"`
	IncludedGuests int  `bson:"included_guests"`
	AllowChildren  bool `bson:"allow_children"`
	AllowInfants   bool `bson:"allow_infants"`
	AllowPets      bool `bson:"allow_pets"`
	AllowSmoking   bool `bson:"allow_smoking"`
	AllowParties   bool `bson:"allow_parties"`

	InstantBook        bool        `bson:"instant_book"`
	AdvanceNoticeHours int         `bson:"advance_notice_hours"`
	PreparationDays    int         `bson:"preparation_days"`
	CheckInTime        string      `bson:"check_in_time,omitempty"`
	CheckOutTime       string      `bson:"check_out_time,omitempty"`
	BlockedDates       []time.Time `bson:"blocked_dates,omitempty"`
	MinAdvanceDays     int         `bson:"min_advance_days"`
	MaxAdvanceDays     int         `bson:"max_advance_days"`

	Policy    policyDoc `bson:"policy"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
	Version   int64     `bson:"version"`
}

func toRentalDoc(r *rental.Rental) rentalDoc {
	doc := rentalDoc{
		ID:              string(r.ID),
		Owner:           string(r.Owner),
		Title:           r.Title,
		BasePrice:       toMoneyDoc(r.Pricing.BasePrice),
		BillingUnit:     string(r.Pricing.Unit),
		SecurityDeposit: toMoneyDoc(r.Pricing.SecurityDeposit),
		CleaningFee:     toMoneyDoc(r.Pricing.CleaningFee),
		MinimumStay:     r.Pricing.MinimumStay,
		MaximumStay:     r.Pricing.MaximumStay,

		MaxGuests:      r.Rules.MaxGuests,
		IncludedGuests: r.Rules.IncludedGuests,
		AllowChildren:  r.Rules.AllowChildren,
		AllowInfants:   r.Rules.AllowInfants,
		AllowPets:      r.Rules.AllowPets,
		AllowSmoking:   r.Rules.AllowSmoking,
		AllowParties:   r.Rules.AllowParties,

		InstantBook:        r.Availability.InstantBook,
		AdvanceNoticeHours: r.Availability.AdvanceNoticeHours,
		PreparationDays:    r.Availability.PreparationDays,
		CheckInTime:        r.Availability.CheckInTime,
		CheckOutTime:       r.Availability.CheckOutTime,
		BlockedDates:       r.Availability.BlockedDates,
		MinAdvanceDays:     r.Availability.MinAdvanceDays,
		MaxAdvanceDays:     r.Availability.MaxAdvanceDays,

		Policy:    toPolicyDoc(r.Policy),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Version:   r.Version,
	}
	for _, s := range r.SeasonalRates {
		doc.SeasonalRates = append(doc.SeasonalRates, seasonalRateDoc(s))
	}
	for _, d := range r.Discounts {
		doc.Discounts = append(doc.Discounts, discountDoc{
			ID: d.ID, Kind: string(d.Kind), Value: d.Value, IsPercentage: d.IsPercentage,
			MinimumStay: d.MinimumStay, ValidFrom: d.ValidFrom, ValidUntil: d.ValidUntil,
			Active: d.Active, Description: d.Description,
		})
	}
	for _, f := range r.Fees {
		doc.Fees = append(doc.Fees, feeDoc{ID: f.ID, Name: f.Name, Amount: toMoneyDoc(f.Amount), Kind: string(f.Kind), Required: f.Required})
	}
	return doc
}

func (doc rentalDoc) toDomain() *rental.Rental {
	r := &rental.Rental{
		ID:    rental.RentalID(doc.ID),
		Owner: rental.OwnerID(doc.Owner),
		Title: doc.Title,
		Pricing: rental.Pricing{
			BasePrice:       doc.BasePrice.toDomain(),
			Unit:            rental.BillingUnit(doc.BillingUnit),
			SecurityDeposit: doc.SecurityDeposit.toDomain(),
			CleaningFee:     doc.CleaningFee.toDomain(),
			MinimumStay:     doc.MinimumStay,
			MaximumStay:     doc.MaximumStay,
		},
		Rules: rental.HouseRules{
			MaxGuests:      doc.MaxGuests,
			IncludedGuests: doc.IncludedGuests,
			AllowChildren:  doc.AllowChildren,
			AllowInfants:   doc.AllowInfants,
			AllowPets:      doc.AllowPets,
			AllowSmoking:   doc.AllowSmoking,
			AllowParties:   doc.AllowParties,
		},
		Availability: rental.AvailabilityRules{
			InstantBook:        doc.InstantBook,
			AdvanceNoticeHours: doc.AdvanceNoticeHours,
			PreparationDays:    doc.PreparationDays,
			CheckInTime:        doc.CheckInTime,
			CheckOutTime:       doc.CheckOutTime,
			BlockedDates:       doc.BlockedDates,
			MinAdvanceDays:     doc.MinAdvanceDays,
			MaxAdvanceDays:     doc.MaxAdvanceDays,
		},
		Policy:    doc.Policy.toDomain(),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		Version:   doc.Version,
	}
	for _, s := range doc.SeasonalRates {
		r.SeasonalRates = append(r.SeasonalRates, rental.SeasonalRate(s))
	}
	for _, d := range doc.Discounts {
		r.Discounts = append(r.Discounts, rental.Discount{
			ID: d.ID, Kind: rental.DiscountKind(d.Kind), Value: d.Value, IsPercentage: d.IsPercentage,
			MinimumStay: d.MinimumStay, ValidFrom: d.ValidFrom, ValidUntil: d.ValidUntil,
			Active: d.Active, Description: d.Description,
		})
	}
	for _, f := range doc.Fees {
		r.Fees = append(r.Fees, rental.Fee{ID: f.ID, Name: f.Name, Amount: f.Amount.toDomain(), Kind: rental.FeeKind(f.Kind), Required: f.Required})
	}
	return r
}

type dayDoc struct {
	Date            time.Time `bson:"date"`
	Available       bool      `bson:"available"`
	PriceOverride   *moneyDoc `bson:"price_override,omitempty"`
	MinStayOverride int       `bson:"min_stay_override,omitempty"`
	Blocked         bool      `bson:"blocked,omitempty"`
	BlockReason     string    `bson:"block_reason,omitempty"`
	BookingID       string    `bson:"booking_id,omitempty"`
}

type calendarDoc struct {
	RentalID string   `bson:"_id"`
	Days     []dayDoc `bson:"days"`
	Version  int64    `bson:"version"`
}

func toCalendarDoc(c *calendar.Calendar) calendarDoc {
	doc := calendarDoc{RentalID: string(c.RentalID), Version: c.Version, Days: make([]dayDoc, 0, len(c.Days))}
	for _, d := range c.Days {
		dd := dayDoc{
			Date:            d.Date,
			Available:       d.Available,
			MinStayOverride: d.MinStayOverride,
			Blocked:         d.Blocked,
			BlockReason:     d.BlockReason,
			BookingID:       d.BookingID,
		}
		if d.PriceOverride != nil {
			price := toMoneyDoc(*d.PriceOverride)
			dd.PriceOverride = &price
		}
		doc.Days = append(doc.Days, dd)
	}
	return doc
}

func (doc calendarDoc) toDomain() *calendar.Calendar {
	c := calendar.New(rental.RentalID(doc.RentalID))
	c.Version = doc.Version
	for _, dd := range doc.Days {
		d := calendar.Day{
			Date:            dd.Date,
			Available:       dd.Available,
			MinStayOverride: dd.MinStayOverride,
			Blocked:         dd.Blocked,
			BlockReason:     dd.BlockReason,
			BookingID:       dd.BookingID,
		}
		if dd.PriceOverride != nil {
			price := dd.PriceOverride.toDomain()
			d.PriceOverride = &price
		}
		c.Days[calendar.DateKey(dd.Date)] = d
	}
	return c
}

type nightlyRateDoc struct {
	Date           time.Time `bson:"date"`
	Price          moneyDoc  `bson:"price"`
	SeasonalRateID string    `bson:"seasonal_rate_id,omitempty"`
	Overridden     bool      `bson:"overridden,omitempty"`
}

type discountLineDoc struct {
	DiscountID  string   `bson:"discount_id"`
	Kind        string   `bson:"kind"`
	Amount      moneyDoc `bson:"amount"`
	Description string   `bson:"description,omitempty"`
}

type feeLineDoc struct {
	FeeID  string   `bson:"fee_id,omitempty"`
	Name   string   `bson:"name"`
	Kind   string   `bson:"kind"`
	Amount moneyDoc `bson:"amount"`
}

type taxLineDoc struct {
	Name   string   `bson:"name"`
	Amount moneyDoc `bson:"amount"`
}

type breakdownDoc struct {
	Currency        string            `bson:"currency"`
	Nights          int               `bson:"nights"`
	NightlyRates    []nightlyRateDoc  `bson:"nightly_rates"`
	Subtotal        moneyDoc          `bson:"subtotal"`
	Discounts       []discountLineDoc `bson:"discounts,omitempty"`
	DiscountTotal   moneyDoc          `bson:"discount_total"`
	Fees            []feeLineDoc      `bson:"fees,omitempty"`
	FeeTotal        moneyDoc          `bson:"fee_total"`
	Taxes           []taxLineDoc      `bson:"taxes,omitempty"`
	TaxTotal        moneyDoc          `bson:"tax_total"`
	SecurityDeposit moneyDoc          `bson:"security_deposit"`
	Total           moneyDoc          `bson:"total"`
}

func toBreakdownDoc(b pricing.Breakdown) breakdownDoc {
	doc := breakdownDoc{
		Currency:        b.Currency,
		Nights:          b.Nights,
		Subtotal:        toMoneyDoc(b.Subtotal),
		DiscountTotal:   toMoneyDoc(b.DiscountTotal),
		FeeTotal:        toMoneyDoc(b.FeeTotal),
		TaxTotal:        toMoneyDoc(b.TaxTotal),
		SecurityDeposit: toMoneyDoc(b.SecurityDeposit),
		Total:           toMoneyDoc(b.Total),
	}
	for _, n := range b.NightlyRates {
		doc.NightlyRates = append(doc.NightlyRates, nightlyRateDoc{Date: n.Date, Price: toMoneyDoc(n.Price), SeasonalRateID: n.SeasonalRateID, Overridden: n.Overridden})
	}
	for _, l := range b.Discounts {
		doc.Discounts = append(doc.Discounts, discountLineDoc{DiscountID: l.DiscountID, Kind: string(l.Kind), Amount: toMoneyDoc(l.Amount), Description: l.Description})
	}
	for _, l := range b.Fees {
		doc.Fees = append(doc.Fees, feeLineDoc{FeeID: l.FeeID, Name: l.Name, Kind: string(l.Kind), Amount: toMoneyDoc(l.Amount)})
	}
	for _, l := range b.Taxes {
		doc.Taxes = append(doc.Taxes, taxLineDoc{Name: l.Name, Amount: toMoneyDoc(l.Amount)})
	}
	return doc
}

func (doc breakdownDoc) toDomain() pricing.Breakdown {
	b := pricing.Breakdown{
		Currency:        doc.Currency,
		Nights:          doc.Nights,
		Subtotal:        doc.Subtotal.toDomain(),
		DiscountTotal:   doc.DiscountTotal.toDomain(),
		FeeTotal:        doc.FeeTotal.toDomain(),
		TaxTotal:        doc.TaxTotal.toDomain(),
		SecurityDeposit: doc.SecurityDeposit.toDomain(),
		Total:           doc.Total.toDomain(),
	}
	for _, n := range doc.NightlyRates {
		b.NightlyRates = append(b.NightlyRates, pricing.NightlyRate{Date: n.Date, Price: n.Price.toDomain(), SeasonalRateID: n.SeasonalRateID, Overridden: n.Overridden})
	}
	for _, l := range doc.Discounts {
		b.Discounts = append(b.Discounts, pricing.DiscountLine{DiscountID: l.DiscountID, Kind: rental.DiscountKind(l.Kind), Amount: l.Amount.toDomain(), Description: l.Description})
	}
	for _, l := range doc.Fees {
		b.Fees = append(b.Fees, pricing.FeeLine{FeeID: l.FeeID, Name: l.Name, Kind: rental.FeeKind(l.Kind), Amount: l.Amount.toDomain()})
	}
	for _, l := range doc.Taxes {
		b.Taxes = append(b.Taxes, pricing.TaxLine{Name: l.Name, Amount: l.Amount.toDomain()})
	}
	return b
}

type cancellationDoc struct {
	CancelledBy string             `bson:"cancelled_by"`
	Reason      string             `bson:"reason,omitempty"`
	At          time.Time          `bson:"at"`
	Refundable  moneyDoc           `bson:"refundable"`
	Forfeited   moneyDoc           `bson:"forfeited"`
	Percentage  int                `bson:"percentage"`
	Basis       string             `bson:"basis"`
	Matched     *refundScheduleDoc `bson:"matched,omitempty"`
	ReleaseFrom time.Time          `bson:"release_from,omitempty"`
}

type bookingDoc struct {
	ID          string           `bson:"_id"`
	RentalID    string           `bson:"rental_id"`
	GuestID     string           `bson:"guest_id"`
	OwnerID     string           `bson:"owner_id"`
	CheckIn     time.Time        `bson:"check_in"`
	CheckOut    time.Time        `bson:"check_out"`
	Adults      int              `bson:"adults"`
	Children    int              `bson:"children"`
	Infants     int              `bson:"infants"`
	Pets        int              `bson:"pets"`
	Price       breakdownDoc     `bson:"price"`
	Policy      policyDoc        `bson:"policy"`
	Status      string           `bson:"status"`
	Payment     string           `bson:"payment"`
	PaymentHold string           `bson:"payment_hold,omitempty"`
	Cancellation *cancellationDoc `bson:"cancellation,omitempty"`
	CreatedAt   time.Time        `bson:"created_at"`
	ConfirmedAt time.Time        `bson:"confirmed_at,omitempty"`
	UpdatedAt   time.Time        `bson:"updated_at"`
	Version     int64            `bson:"version"`
}

func toBookingDoc(b *booking.Booking) bookingDoc {
	doc := bookingDoc{
		ID:          string(b.ID),
		RentalID:    string(b.RentalID),
		GuestID:     b.GuestID,
		OwnerID:     string(b.OwnerID),
		CheckIn:     b.Range.CheckIn,
		CheckOut:    b.Range.CheckOut,
		Adults:      b.Guests.Adults,
		Children:    b.Guests.Children,
		Infants:     b.Guests.Infants,
		Pets:        b.Guests.Pets,
		Price:       toBreakdownDoc(b.Price),
		Policy:      toPolicyDoc(b.Policy),
		Status:      string(b.Status),
		Payment:     string(b.Payment),
		PaymentHold: b.PaymentHold,
		CreatedAt:   b.CreatedAt,
		ConfirmedAt: b.ConfirmedAt,
		UpdatedAt:   b.UpdatedAt,
		Version:     b.Version,
	}
	if b.Cancellation != nil {
		c := b.Cancellation
		cd := &cancellationDoc{
			CancelledBy: c.CancelledBy,
			Reason:      c.Reason,
			At:          c.At,
			Refundable:  toMoneyDoc(c.Refund.Refundable),
			Forfeited:   toMoneyDoc(c.Refund.Forfeited),
			Percentage:  c.Refund.Percentage,
			Basis:       string(c.Refund.Basis),
			ReleaseFrom: c.ReleaseFrom,
		}
		if c.Refund.Matched != nil {
			matched := refundScheduleDoc(*c.Refund.Matched)
			cd.Matched = &matched
		}
		doc.Cancellation = cd
	}
	return doc
}

func (doc bookingDoc) toDomain() *booking.Booking {
	b := &booking.Booking{
		ID:          booking.BookingID(doc.ID),
		RentalID:    rental.RentalID(doc.RentalID),
		GuestID:     doc.GuestID,
		OwnerID:     rental.OwnerID(doc.OwnerID),
		Range:       daterange.DateRange{CheckIn: doc.CheckIn, CheckOut: doc.CheckOut},
		Guests:      availability.GuestCounts{Adults: doc.Adults, Children: doc.Children, Infants: doc.Infants, Pets: doc.Pets},
		Price:       doc.Price.toDomain(),
		Policy:      doc.Policy.toDomain(),
		Status:      booking.Status(doc.Status),
		Payment:     booking.PaymentState(doc.Payment),
		PaymentHold: doc.PaymentHold,
		CreatedAt:   doc.CreatedAt,
		ConfirmedAt: doc.ConfirmedAt,
		UpdatedAt:   doc.UpdatedAt,
		Version:     doc.Version,
	}
	if doc.Cancellation != nil {
		cd := doc.Cancellation
		rec := &booking.Cancellation{
			CancelledBy: cd.CancelledBy,
			Reason:      cd.Reason,
			At:          cd.At,
			Refund: rental.Refund{
				Refundable: cd.Refundable.toDomain(),
				Forfeited:  cd.Forfeited.toDomain(),
				Percentage: cd.Percentage,
				Basis:      rental.RefundBasis(cd.Basis),
			},
			ReleaseFrom: cd.ReleaseFrom,
		}
		if cd.Matched != nil {
			matched := rental.RefundSchedule(*cd.Matched)
			rec.Refund.Matched = &matched
		}
		b.Cancellation = rec
	}
	return b
}
