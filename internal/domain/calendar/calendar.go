package calendar

import (
	"context"
	"errors"
	"sort"
	"time"

	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
)

var (
	ErrDatesTaken       = errors.New("calendar: one or more dates are blocked or already reserved")
	ErrNothingToRelease = errors.New("calendar: no days reserved for booking")
	ErrDayReserved      = errors.New("calendar: day belongs to a booking")
)

// Day is the per-date availability record for a rental. A day owned by a
// booking is never available.
type Day struct {
	Date            time.Time
	Available       bool
	PriceOverride   *money.Money
	MinStayOverride int
	Blocked         bool
	BlockReason     string
	BookingID       string
}

// Calendar tracks day-level state for one rental. Writes go through
// Reserve/Release/Block so the ownership invariant holds; Version backs the
// conditional persistence write.
type Calendar struct {
	RentalID rental.RentalID
	Days     map[string]Day
	Version  int64
	events.EventRecorder
}

type Repository interface {
	ForRental(ctx context.Context, id rental.RentalID) (*Calendar, error)
	Save(ctx context.Context, cal *Calendar) error
}

func New(id rental.RentalID) *Calendar {
	return &Calendar{RentalID: id, Days: make(map[string]Day)}
}

// DateKey formats a date as the canonical calendar map key.
func DateKey(t time.Time) string {
	return daterange.Day(t).Format("2006-01-02")
}

// Day returns the record for a date. Dates with no record are open: the
// calendar is lazy and only materializes days that were touched.
func (c *Calendar) Day(date time.Time) Day {
	if d, ok := c.Days[DateKey(date)]; ok {
		return d
	}
	return Day{Date: daterange.Day(date), Available: true}
}

// CanReserve reports whether every night of the range is open.
func (c *Calendar) CanReserve(r daterange.DateRange) bool {
	for _, date := range r.Dates() {
		d := c.Day(date)
		if d.Blocked || d.BookingID != "" || !d.Available {
			return false
		}
	}
	return true
}

// Reserve claims every night of the range for the booking. It fails without
// touching any day if a single night is unavailable, so a lost race leaves
// the calendar unchanged.
func (c *Calendar) Reserve(r daterange.DateRange, bookingID string, now time.Time) error {
	if !c.CanReserve(r) {
		c.Record(OverbookingPrevented{RentalID: string(c.RentalID), Range: r, BookingID: bookingID, At: now.UTC()})
		return ErrDatesTaken
	}
	for _, date := range r.Dates() {
		d := c.Day(date)
		d.Available = false
		d.BookingID = bookingID
		c.put(d)
	}
	c.Record(DaysReserved{RentalID: string(c.RentalID), Range: r, BookingID: bookingID, At: now.UTC()})
	return nil
}

// Release returns the booking's days to availability. When from is non-zero
// only nights on or after it are released, which supports partial-stay
// cancellation after check-in.
func (c *Calendar) Release(bookingID string, from time.Time, now time.Time) error {
	released := 0
	for key, d := range c.Days {
		if d.BookingID != bookingID {
			continue
		}
		if !from.IsZero() && d.Date.Before(daterange.Day(from)) {
			continue
		}
		d.Available = true
		d.BookingID = ""
		c.Days[key] = d
		released++
	}
	if released == 0 {
		return ErrNothingToRelease
	}
	c.Record(DaysReleased{RentalID: string(c.RentalID), BookingID: bookingID, Nights: released, At: now.UTC()})
	return nil
}

// Block closes a range for non-booking reasons (maintenance, host hold).
// Days owned by a booking cannot be blocked.
func (c *Calendar) Block(r daterange.DateRange, reason string, now time.Time) error {
	for _, date := range r.Dates() {
		if c.Day(date).BookingID != "" {
			return ErrDayReserved
		}
	}
	for _, date := range r.Dates() {
		d := c.Day(date)
		d.Available = false
		d.Blocked = true
		d.BlockReason = reason
		c.put(d)
	}
	c.Record(DaysBlocked{RentalID: string(c.RentalID), Range: r, Reason: reason, At: now.UTC()})
	return nil
}

// Unblock reopens previously blocked days in the range.
func (c *Calendar) Unblock(r daterange.DateRange, now time.Time) {
	for _, date := range r.Dates() {
		d := c.Day(date)
		if !d.Blocked {
			continue
		}
		d.Blocked = false
		d.BlockReason = ""
		if d.BookingID == "" {
			d.Available = true
		}
		c.put(d)
	}
}

// SetPriceOverride pins an explicit nightly price for one date.
func (c *Calendar) SetPriceOverride(date time.Time, price money.Money) {
	d := c.Day(date)
	d.PriceOverride = &price
	c.put(d)
}

// SetMinStayOverride pins a per-date minimum stay.
func (c *Calendar) SetMinStayOverride(date time.Time, nights int) {
	d := c.Day(date)
	d.MinStayOverride = nights
	c.put(d)
}

// ReservedRanges reconstructs the contiguous stay range of every booking
// currently holding days, sorted by check-in.
func (c *Calendar) ReservedRanges() []ReservedRange {
	spans := make(map[string]*ReservedRange)
	for _, d := range c.Days {
		if d.BookingID == "" {
			continue
		}
		span, ok := spans[d.BookingID]
		if !ok {
			spans[d.BookingID] = &ReservedRange{
				BookingID: d.BookingID,
				Range:     daterange.DateRange{CheckIn: d.Date, CheckOut: d.Date.AddDate(0, 0, 1)},
			}
			continue
		}
		if d.Date.Before(span.Range.CheckIn) {
			span.Range.CheckIn = d.Date
		}
		if !d.Date.AddDate(0, 0, 1).After(span.Range.CheckOut) {
			continue
		}
		span.Range.CheckOut = d.Date.AddDate(0, 0, 1)
	}
	out := make([]ReservedRange, 0, len(spans))
	for _, span := range spans {
		out = append(out, *span)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Range.CheckIn.Before(out[j].Range.CheckIn) })
	return out
}

type ReservedRange struct {
	BookingID string
	Range     daterange.DateRange
}

func (c *Calendar) put(d Day) {
	if c.Days == nil {
		c.Days = make(map[string]Day)
	}
	c.Days[DateKey(d.Date)] = d
}
