package calendar

import (
	"time"

	"staybook/internal/domain/shared/daterange"
)

type DaysReserved struct {
	RentalID  string
	Range     daterange.DateRange
	BookingID string
	At        time.Time
}

func (e DaysReserved) EventName() string     { return "calendar.reserved" }
func (e DaysReserved) AggregateID() string   { return e.RentalID }
func (e DaysReserved) OccurredAt() time.Time { return e.At }

type DaysReleased struct {
	RentalID  string
	BookingID string
	Nights    int
	At        time.Time
}

func (e DaysReleased) EventName() string     { return "calendar.released" }
func (e DaysReleased) AggregateID() string   { return e.RentalID }
func (e DaysReleased) OccurredAt() time.Time { return e.At }

type DaysBlocked struct {
	RentalID string
	Range    daterange.DateRange
	Reason   string
	At       time.Time
}

func (e DaysBlocked) EventName() string     { return "calendar.blocked" }
func (e DaysBlocked) AggregateID() string   { return e.RentalID }
func (e DaysBlocked) OccurredAt() time.Time { return e.At }

type OverbookingPrevented struct {
	RentalID  string
	Range     daterange.DateRange
	BookingID string
	At        time.Time
}

func (e OverbookingPrevented) EventName() string     { return "calendar.overbooking_prevented" }
func (e OverbookingPrevented) AggregateID() string   { return e.RentalID }
func (e OverbookingPrevented) OccurredAt() time.Time { return e.At }
