package availability

import (
	"time"

	"staybook/internal/domain/calendar"
	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/daterange"
)

// Reason identifies why a candidate stay was rejected. Callers own the
// user-facing messaging; the validator never returns a generic error.
type Reason string

const (
	ReasonInvalidDateRange      Reason = "INVALID_DATE_RANGE"
	ReasonStayTooShort          Reason = "STAY_TOO_SHORT"
	ReasonStayTooLong           Reason = "STAY_TOO_LONG"
	ReasonLeadTimeViolation     Reason = "LEAD_TIME_VIOLATION"
	ReasonGuestCapacityExceeded Reason = "GUEST_CAPACITY_EXCEEDED"
	ReasonHouseRuleViolation    Reason = "HOUSE_RULE_VIOLATION"
	ReasonDatesUnavailable      Reason = "DATES_UNAVAILABLE"
)

type GuestCounts struct {
	Adults   int
	Children int
	Infants  int
	Pets     int
}

// Total counts the guests that occupy capacity. Infants do not.
func (g GuestCounts) Total() int {
	return g.Adults + g.Children
}

type Request struct {
	Range  daterange.DateRange
	Guests GuestCounts
	Now    time.Time
}

type Result struct {
	Reason Reason
	Detail string
	Range  daterange.DateRange
}

func (r Result) OK() bool {
	return r.Reason == ""
}

func ok(dr daterange.DateRange) Result {
	return Result{Range: dr}
}

func fail(reason Reason, detail string) Result {
	return Result{Reason: reason, Detail: detail}
}

// Validate runs the booking eligibility checks in a fixed order and returns
// either the validated range or the first failing check's reason. It is a
// pure read: the calendar write happens only when the booking state machine
// commits.
func Validate(r *rental.Rental, cal *calendar.Calendar, req Request) Result {
	if err := req.Range.Validate(); err != nil || req.Range.Nights() < 1 {
		return fail(ReasonInvalidDateRange, "check-out must fall after check-in")
	}
	nights := req.Range.Nights()

	minStay := r.Pricing.MinimumStay
	for _, date := range req.Range.Dates() {
		if override := cal.Day(date).MinStayOverride; override > minStay {
			minStay = override
		}
	}
	if nights < minStay {
		return fail(ReasonStayTooShort, "stay is below the minimum nights for these dates")
	}
	if r.Pricing.MaximumStay > 0 && nights > r.Pricing.MaximumStay {
		return fail(ReasonStayTooLong, "stay exceeds the maximum nights")
	}

	lead := req.Range.CheckIn.Sub(req.Now)
	if lead < time.Duration(r.Availability.AdvanceNoticeHours)*time.Hour {
		return fail(ReasonLeadTimeViolation, "booking does not meet the advance notice window")
	}
	leadDays := int(lead.Hours() / 24)
	if leadDays < r.Availability.MinAdvanceDays {
		return fail(ReasonLeadTimeViolation, "check-in is too soon")
	}
	if r.Availability.MaxAdvanceDays > 0 && leadDays > r.Availability.MaxAdvanceDays {
		return fail(ReasonLeadTimeViolation, "check-in is too far in the future")
	}

	if req.Guests.Total() > r.Rules.MaxGuests {
		return fail(ReasonGuestCapacityExceeded, "guest count exceeds the rental capacity")
	}
	if req.Guests.Children > 0 && !r.Rules.AllowChildren {
		return fail(ReasonHouseRuleViolation, "children are not allowed")
	}
	if req.Guests.Infants > 0 && !r.Rules.AllowInfants {
		return fail(ReasonHouseRuleViolation, "infants are not allowed")
	}
	if req.Guests.Pets > 0 && !r.Rules.AllowPets {
		return fail(ReasonHouseRuleViolation, "pets are not allowed")
	}

	for _, date := range req.Range.Dates() {
		day := cal.Day(date)
		if day.Blocked || r.Availability.DateBlocked(date) {
			return fail(ReasonDatesUnavailable, "a date in the range is blocked")
		}
		if day.BookingID != "" || !day.Available {
			return fail(ReasonDatesUnavailable, "a date in the range is already booked")
		}
	}

	if prep := r.Availability.PreparationDays; prep > 0 {
		buffer := time.Duration(prep) * 24 * time.Hour
		for _, reserved := range cal.ReservedRanges() {
			// Buffer after the earlier stay's checkout must not reach the
			// later stay's check-in, in either direction.
			if !reserved.Range.CheckOut.After(req.Range.CheckIn) &&
				reserved.Range.CheckOut.Add(buffer).After(req.Range.CheckIn) {
				return fail(ReasonDatesUnavailable, "preparation time after a previous stay overlaps the range")
			}
			if !req.Range.CheckOut.After(reserved.Range.CheckIn) &&
				req.Range.CheckOut.Add(buffer).After(reserved.Range.CheckIn) {
				return fail(ReasonDatesUnavailable, "preparation time before the next stay overlaps the range")
			}
		}
	}

	return ok(req.Range)
}
