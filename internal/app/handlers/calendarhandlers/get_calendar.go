// Package calendarhandlers serves the owner-facing calendar: a day-by-day
// view and the commands that block days or pin per-date overrides.
package calendarhandlers

import (
	"context"
	"errors"
	"time"

	"staybook/internal/app/uow"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

const GetCalendarKey = "calendar.get"

type GetCalendar struct {
	RentalID rental.RentalID
	From     time.Time
	To       time.Time
}

func (GetCalendar) Key() string { return GetCalendarKey }

// DayView is one date of the public calendar. Price carries the resolved
// nightly rate when one exists; a rate gap leaves it nil rather than failing
// the whole view.
type DayView struct {
	Date      time.Time
	Available bool
	Blocked   bool
	Booked    bool
	Price     *money.Money
	MinStay   int
}

type CalendarView struct {
	RentalID rental.RentalID
	Days     []DayView
}

type GetCalendarHandler struct {
	Factory uow.Factory
}

func NewGetCalendarHandler(factory uow.Factory) *GetCalendarHandler {
	return &GetCalendarHandler{Factory: factory}
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendar) (CalendarView, error) {
	var zero CalendarView
	unit, err := h.Factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return zero, err
	}
	defer unit.Rollback(ctx)

	rent, err := unit.Rentals().ByID(ctx, q.RentalID)
	if err != nil {
		return zero, err
	}
	cal, err := unit.Calendars().ForRental(ctx, q.RentalID)
	if err != nil {
		return zero, err
	}
	dr, err := daterange.New(q.From, q.To)
	if err != nil {
		return zero, err
	}

	view := CalendarView{RentalID: q.RentalID, Days: make([]DayView, 0, dr.Nights())}
	for _, date := range dr.Dates() {
		d := cal.Day(date)
		dv := DayView{
			Date:      d.Date,
			Available: d.Available && !rent.Availability.DateBlocked(date),
			Blocked:   d.Blocked || rent.Availability.DateBlocked(date),
			Booked:    d.BookingID != "",
			MinStay:   rent.Pricing.MinimumStay,
		}
		if d.MinStayOverride > 0 {
			dv.MinStay = d.MinStayOverride
		}
		one := daterange.DateRange{CheckIn: daterange.Day(date), CheckOut: daterange.Day(date).AddDate(0, 0, 1)}
		if rates, _, err := pricing.ResolveRates(rent, cal, one); err == nil && len(rates) == 1 {
			price := rates[0].Price
			dv.Price = &price
		} else if err != nil && !errors.Is(err, pricing.ErrRateGap) {
			return zero, err
		}
		view.Days = append(view.Days, dv)
	}
	return view, nil
}
