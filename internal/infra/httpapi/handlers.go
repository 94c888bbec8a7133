package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/handlers/bookinghandlers"
	"staybook/internal/app/handlers/calendarhandlers"
	"staybook/internal/app/handlers/pricinghandlers"
	"staybook/internal/app/handlers/rentalhandlers"
	"staybook/internal/app/queries"
	"staybook/internal/domain/availability"
	"staybook/internal/domain/booking"
	"staybook/internal/domain/rental"
	"staybook/internal/domain/shared/money"
)

const (
	idempotencyHeader = "X-Idempotency-Key"
	dateLayout        = "2006-01-02"
)

type moneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (m moneyDTO) toDomain() (money.Money, error) {
	return money.New(m.Amount, m.Currency)
}

func parseDate(c *gin.Context, raw string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD: " + raw})
		return time.Time{}, false
	}
	return t, true
}

type guestsDTO struct {
	Adults   int `json:"adults" form:"adults"`
	Children int `json:"children" form:"children"`
	Infants  int `json:"infants" form:"infants"`
	Pets     int `json:"pets" form:"pets"`
}

func (g guestsDTO) toDomain() availability.GuestCounts {
	return availability.GuestCounts{Adults: g.Adults, Children: g.Children, Infants: g.Infants, Pets: g.Pets}
}

type seasonalRateDTO struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
	Multiplier float64 `json:"multiplier"`
	Active     bool    `json:"active"`
}

type feeDTO struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Amount   moneyDTO `json:"amount"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required"`
}

type discountDTO struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Value        int64  `json:"value"`
	IsPercentage bool   `json:"is_percentage"`
	MinimumStay  int    `json:"minimum_stay"`
	ValidFrom    string `json:"valid_from"`
	ValidUntil   string `json:"valid_until"`
	Active       bool   `json:"active"`
	Description  string `json:"description"`
}

type policyDTO struct {
	Kind             string `json:"kind"`
	Description      string `json:"description"`
	GracePeriodHours int    `json:"grace_period_hours"`
	Schedule         []struct {
		DaysBeforeCheckIn int `json:"days_before_check_in"`
		RefundPercentage  int `json:"refund_percentage"`
	} `json:"schedule"`
}

func (p policyDTO) toDomain() rental.CancellationPolicy {
	policy := rental.CancellationPolicy{
		Kind:             rental.PolicyKind(p.Kind),
		Description:      p.Description,
		GracePeriodHours: p.GracePeriodHours,
	}
	for _, e := range p.Schedule {
		policy.Schedule = append(policy.Schedule, rental.RefundSchedule{
			DaysBeforeCheckIn: e.DaysBeforeCheckIn,
			RefundPercentage:  e.RefundPercentage,
		})
	}
	return policy
}

type createRentalRequest struct {
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`

	BasePrice       moneyDTO `json:"base_price"`
	BillingUnit     string   `json:"billing_unit"`
	SecurityDeposit moneyDTO `json:"security_deposit"`
	CleaningFee     moneyDTO `json:"cleaning_fee"`
	MinimumStay     int      `json:"minimum_stay"`
	MaximumStay     int      `json:"maximum_stay"`

	SeasonalRates []seasonalRateDTO `json:"seasonal_rates"`
	Fees          []feeDTO          `json:"fees"`
	Discounts     []discountDTO     `json:"discounts"`

	MaxGuests      int  `json:"max_guests"`
	IncludedGuests int  `json:"included_guests"`
	AllowChildren  bool `json:"allow_children"`
	AllowInfants   bool `json:"allow_infants"`
	AllowPets      bool `json:"allow_pets"`
	AllowSmoking   bool `json:"allow_smoking"`
	AllowParties   bool `json:"allow_parties"`

	InstantBook        bool   `json:"instant_book"`
	AdvanceNoticeHours int    `json:"advance_notice_hours"`
	PreparationDays    int    `json:"preparation_days"`
	MinAdvanceDays     int    `json:"min_advance_days"`
	MaxAdvanceDays     int    `json:"max_advance_days"`
	CheckInTime        string `json:"check_in_time"`
	CheckOutTime       string `json:"check_out_time"`

	Policy policyDTO `json:"policy"`
}

func parseOptionalDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, raw)
	return t
}

func toSeasonalRates(dtos []seasonalRateDTO) []rental.SeasonalRate {
	var out []rental.SeasonalRate
	for _, dto := range dtos {
		out = append(out, rental.SeasonalRate{
			ID:         dto.ID,
			Name:       dto.Name,
			Start:      parseOptionalDate(dto.Start),
			End:        parseOptionalDate(dto.End),
			Multiplier: dto.Multiplier,
			Active:     dto.Active,
		})
	}
	return out
}

func toFees(dtos []feeDTO) ([]rental.Fee, error) {
	var out []rental.Fee
	for _, dto := range dtos {
		amount, err := dto.Amount.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rental.Fee{ID: dto.ID, Name: dto.Name, Amount: amount, Kind: rental.FeeKind(dto.Kind), Required: dto.Required})
	}
	return out, nil
}

func toDiscounts(dtos []discountDTO) []rental.Discount {
	var out []rental.Discount
	for _, dto := range dtos {
		out = append(out, rental.Discount{
			ID:           dto.ID,
			Kind:         rental.DiscountKind(dto.Kind),
			Value:        dto.Value,
			IsPercentage: dto.IsPercentage,
			MinimumStay:  dto.MinimumStay,
			ValidFrom:    parseOptionalDate(dto.ValidFrom),
			ValidUntil:   parseOptionalDate(dto.ValidUntil),
			Active:       dto.Active,
			Description:  dto.Description,
		})
	}
	return out
}

func (s *Server) createRental(c *gin.Context) {
	var req createRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	basePrice, err := req.BasePrice.toDomain()
	if err != nil {
		s.fail(c, err)
		return
	}
	fees, err := toFees(req.Fees)
	if err != nil {
		s.fail(c, err)
		return
	}
	deposit := money.Money{Amount: req.SecurityDeposit.Amount, Currency: basePrice.Currency}
	cleaning := money.Money{Amount: req.CleaningFee.Amount, Currency: basePrice.Currency}

	cmd := rentalhandlers.CreateRental{
		IdemKey: c.GetHeader(idempotencyHeader),
		Params: rental.CreateParams{
			Owner: rental.OwnerID(req.OwnerID),
			Title: req.Title,
			Pricing: rental.Pricing{
				BasePrice:       basePrice,
				Unit:            rental.BillingUnit(req.BillingUnit),
				SecurityDeposit: deposit,
				CleaningFee:     cleaning,
				MinimumStay:     req.MinimumStay,
				MaximumStay:     req.MaximumStay,
			},
			SeasonalRates: toSeasonalRates(req.SeasonalRates),
			Fees:          fees,
			Discounts:     toDiscounts(req.Discounts),
			Rules: rental.HouseRules{
				MaxGuests:      req.MaxGuests,
				IncludedGuests: req.IncludedGuests,
				AllowChildren:  req.AllowChildren,
				AllowInfants:   req.AllowInfants,
				AllowPets:      req.AllowPets,
				AllowSmoking:   req.AllowSmoking,
				AllowParties:   req.AllowParties,
			},
			Availability: rental.AvailabilityRules{
				InstantBook:        req.InstantBook,
				AdvanceNoticeHours: req.AdvanceNoticeHours,
				PreparationDays:    req.PreparationDays,
				MinAdvanceDays:     req.MinAdvanceDays,
				MaxAdvanceDays:     req.MaxAdvanceDays,
				CheckInTime:        req.CheckInTime,
				CheckOutTime:       req.CheckOutTime,
			},
			Policy: req.Policy.toDomain(),
		},
	}
	res, err := commands.Dispatch[rentalhandlers.CreateRental, rentalhandlers.CreateRentalResult](c.Request.Context(), s.commands, cmd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rental_id": res.RentalID})
}

type updateRatesRequest struct {
	SeasonalRates []seasonalRateDTO `json:"seasonal_rates"`
	Fees          []feeDTO          `json:"fees"`
	Discounts     []discountDTO     `json:"discounts"`
	Policy        *policyDTO        `json:"policy"`
}

func (s *Server) updateRates(c *gin.Context) {
	var req updateRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fees, err := toFees(req.Fees)
	if err != nil {
		s.fail(c, err)
		return
	}
	cmd := rentalhandlers.UpdateRates{
		IdemKey:       c.GetHeader(idempotencyHeader),
		RentalID:      rental.RentalID(c.Param("id")),
		SeasonalRates: toSeasonalRates(req.SeasonalRates),
		Fees:          fees,
		Discounts:     toDiscounts(req.Discounts),
	}
	if req.Policy != nil {
		policy := req.Policy.toDomain()
		cmd.Policy = &policy
	}
	if _, err := commands.Dispatch[rentalhandlers.UpdateRates, struct{}](c.Request.Context(), s.commands, cmd); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getCalendar(c *gin.Context) {
	from, ok := parseDate(c, c.Query("from"))
	if !ok {
		return
	}
	to, ok := parseDate(c, c.Query("to"))
	if !ok {
		return
	}
	view, err := queries.Ask[calendarhandlers.GetCalendar, calendarhandlers.CalendarView](
		c.Request.Context(), s.queries,
		calendarhandlers.GetCalendar{RentalID: rental.RentalID(c.Param("id")), From: from, To: to})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type blockDaysRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

func (s *Server) blockDays(c *gin.Context) {
	var req blockDaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	from, ok := parseDate(c, req.From)
	if !ok {
		return
	}
	to, ok := parseDate(c, req.To)
	if !ok {
		return
	}
	cmd := calendarhandlers.BlockDays{
		IdemKey:  c.GetHeader(idempotencyHeader),
		RentalID: rental.RentalID(c.Param("id")),
		From:     from,
		To:       to,
		Reason:   req.Reason,
	}
	if _, err := commands.Dispatch[calendarhandlers.BlockDays, struct{}](c.Request.Context(), s.commands, cmd); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) unblockDays(c *gin.Context) {
	from, ok := parseDate(c, c.Query("from"))
	if !ok {
		return
	}
	to, ok := parseDate(c, c.Query("to"))
	if !ok {
		return
	}
	cmd := calendarhandlers.UnblockDays{
		IdemKey:  c.GetHeader(idempotencyHeader),
		RentalID: rental.RentalID(c.Param("id")),
		From:     from,
		To:       to,
	}
	if _, err := commands.Dispatch[calendarhandlers.UnblockDays, struct{}](c.Request.Context(), s.commands, cmd); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type setDayPricingRequest struct {
	Date    string    `json:"date"`
	Price   *moneyDTO `json:"price"`
	MinStay int       `json:"min_stay"`
}

func (s *Server) setDayPricing(c *gin.Context) {
	var req setDayPricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, ok := parseDate(c, req.Date)
	if !ok {
		return
	}
	cmd := calendarhandlers.SetDayPricing{
		IdemKey:  c.GetHeader(idempotencyHeader),
		RentalID: rental.RentalID(c.Param("id")),
		Date:     date,
		MinStay:  req.MinStay,
	}
	if req.Price != nil {
		price, err := req.Price.toDomain()
		if err != nil {
			s.fail(c, err)
			return
		}
		cmd.Price = &price
	}
	if _, err := commands.Dispatch[calendarhandlers.SetDayPricing, struct{}](c.Request.Context(), s.commands, cmd); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getQuote(c *gin.Context) {
	checkIn, ok := parseDate(c, c.Query("check_in"))
	if !ok {
		return
	}
	checkOut, ok := parseDate(c, c.Query("check_out"))
	if !ok {
		return
	}
	var guests guestsDTO
	if err := c.ShouldBindQuery(&guests); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := queries.Ask[pricinghandlers.GetQuote, pricinghandlers.QuoteView](
		c.Request.Context(), s.queries,
		pricinghandlers.GetQuote{
			RentalID:  rental.RentalID(c.Param("id")),
			CheckIn:   checkIn,
			CheckOut:  checkOut,
			Guests:    guests.toDomain(),
			PromoCode: c.Query("promo_code"),
		})
	if err != nil {
		s.fail(c, err)
		return
	}
	if view.Breakdown == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"reason": view.Availability.Reason,
			"detail": view.Availability.Detail,
		})
		return
	}
	c.JSON(http.StatusOK, view.Breakdown)
}

type requestBookingRequest struct {
	RentalID  string    `json:"rental_id"`
	GuestID   string    `json:"guest_id"`
	CheckIn   string    `json:"check_in"`
	CheckOut  string    `json:"check_out"`
	Guests    guestsDTO `json:"guests"`
	PromoCode string    `json:"promo_code"`
}

func (s *Server) requestBooking(c *gin.Context) {
	var req requestBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, ok := parseDate(c, req.CheckIn)
	if !ok {
		return
	}
	checkOut, ok := parseDate(c, req.CheckOut)
	if !ok {
		return
	}
	cmd := bookinghandlers.RequestBooking{
		IdemKey:   c.GetHeader(idempotencyHeader),
		RentalID:  rental.RentalID(req.RentalID),
		GuestID:   req.GuestID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Guests:    req.Guests.toDomain(),
		PromoCode: req.PromoCode,
	}
	res, err := commands.Dispatch[bookinghandlers.RequestBooking, bookinghandlers.RequestBookingResult](c.Request.Context(), s.commands, cmd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"booking_id": res.BookingID,
		"status":     res.Status,
		"quote":      res.Quote,
	})
}

func (s *Server) getBooking(c *gin.Context) {
	b, err := queries.Ask[bookinghandlers.GetBooking, *booking.Booking](
		c.Request.Context(), s.queries,
		bookinghandlers.GetBooking{BookingID: booking.BookingID(c.Param("id"))})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) refundPreview(c *gin.Context) {
	refund, err := queries.Ask[bookinghandlers.RefundPreview, rental.Refund](
		c.Request.Context(), s.queries,
		bookinghandlers.RefundPreview{BookingID: booking.BookingID(c.Param("id"))})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, refund)
}

func (s *Server) listGuestBookings(c *gin.Context) {
	list, err := queries.Ask[bookinghandlers.ListGuestBookings, []*booking.Booking](
		c.Request.Context(), s.queries,
		bookinghandlers.ListGuestBookings{GuestID: c.Param("id")})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

type confirmBookingRequest struct {
	OwnerID string `json:"owner_id"`
}

func (s *Server) confirmBooking(c *gin.Context) {
	var req confirmBookingRequest
	_ = c.ShouldBindJSON(&req)
	cmd := bookinghandlers.ConfirmBooking{
		IdemKey:   c.GetHeader(idempotencyHeader),
		BookingID: booking.BookingID(c.Param("id")),
		OwnerID:   req.OwnerID,
	}
	res, err := commands.Dispatch[bookinghandlers.ConfirmBooking, bookinghandlers.ConfirmBookingResult](c.Request.Context(), s.commands, cmd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": res.BookingID, "status": res.Status})
}

type cancelBookingRequest struct {
	CancelledBy string `json:"cancelled_by"`
	Reason      string `json:"reason"`
}

func (s *Server) cancelBooking(c *gin.Context) {
	var req cancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookinghandlers.CancelBooking{
		IdemKey:     c.GetHeader(idempotencyHeader),
		BookingID:   booking.BookingID(c.Param("id")),
		CancelledBy: req.CancelledBy,
		Reason:      req.Reason,
	}
	res, err := commands.Dispatch[bookinghandlers.CancelBooking, bookinghandlers.CancelBookingResult](c.Request.Context(), s.commands, cmd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking_id": res.BookingID,
		"refund":     res.Refund,
		"forfeited":  res.Forfeited,
		"basis":      res.Basis,
	})
}

func (s *Server) checkInBooking(c *gin.Context) {
	cmd := bookinghandlers.CheckInBooking{IdemKey: c.GetHeader(idempotencyHeader), BookingID: booking.BookingID(c.Param("id"))}
	res, err := commands.Dispatch[bookinghandlers.CheckInBooking, bookinghandlers.LifecycleResult](c.Request.Context(), s.commands, cmd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": res.BookingID, "status": res.Status})
}

func (s *Server) checkOutBooking(c *gin.Context) {
	cmd := bookinghandlers.CheckOutBooking{IdemKey: c.GetHeader(idempotencyHeader), BookingID: booking.BookingID(c.Param("id"))}
	res, err := commands.Dispatch[bookinghandlers.CheckOutBooking, bookinghandlers.LifecycleResult](c.Request.Context(), s.commands, cmd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": res.BookingID, "status": res.Status})
}

func (s *Server) completeBooking(c *gin.Context) {
	cmd := bookinghandlers.CompleteBooking{IdemKey: c.GetHeader(idempotencyHeader), BookingID: booking.BookingID(c.Param("id"))}
	res, err := commands.Dispatch[bookinghandlers.CompleteBooking, bookinghandlers.LifecycleResult](c.Request.Context(), s.commands, cmd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": res.BookingID, "status": res.Status})
}

type disputeBookingRequest struct {
	RaisedBy string `json:"raised_by"`
	Reason   string `json:"reason"`
}

func (s *Server) disputeBooking(c *gin.Context) {
	var req disputeBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookinghandlers.DisputeBooking{
		IdemKey:   c.GetHeader(idempotencyHeader),
		BookingID: booking.BookingID(c.Param("id")),
		RaisedBy:  req.RaisedBy,
		Reason:    req.Reason,
	}
	res, err := commands.Dispatch[bookinghandlers.DisputeBooking, bookinghandlers.LifecycleResult](c.Request.Context(), s.commands, cmd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": res.BookingID, "status": res.Status})
}
