package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"staybook/internal/app/handlers/bookinghandlers"
	appmw "staybook/internal/app/middleware"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/calendar"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/infra/storage"
)

// fail maps domain and infrastructure errors onto HTTP statuses. Unmatched
// errors become opaque 500s; the request logger has the detail.
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, rental.ErrRentalNotFound), errors.Is(err, booking.ErrBookingNotFound):
		status = http.StatusNotFound
	case errors.Is(err, calendar.ErrDatesTaken),
		errors.Is(err, storage.ErrConcurrentUpdate),
		errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, appmw.ErrDuplicateRequest),
		errors.Is(err, calendar.ErrDayReserved):
		status = http.StatusConflict
	case errors.Is(err, bookinghandlers.ErrNotBookable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, money.ErrUnsupportedCurrency),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, booking.ErrGuestRequired),
		errors.Is(err, booking.ErrGuestsCount),
		errors.Is(err, booking.ErrPaymentHoldRequired),
		errors.Is(err, pricing.ErrRateGap):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		// Rental validation sentinels all share the package prefix but have
		// no common wrapper; treat any remaining rental error as client input.
		for _, sentinel := range rentalValidationErrs {
			if errors.Is(err, sentinel) {
				status = http.StatusBadRequest
				break
			}
		}
	}

	body := gin.H{"error": err.Error()}
	if status == http.StatusInternalServerError {
		body = gin.H{"error": "internal error"}
	}
	c.AbortWithStatusJSON(status, body)
}

var rentalValidationErrs = []error{
	rental.ErrTitleRequired,
	rental.ErrOwnerRequired,
	rental.ErrBasePrice,
	rental.ErrMinimumStay,
	rental.ErrStayRange,
	rental.ErrGuestsLimit,
	rental.ErrSeasonalRange,
	rental.ErrSeasonalMultiplier,
	rental.ErrRefundPercentage,
	rental.ErrRefundThreshold,
}
