// Package httpapi exposes the engine over HTTP.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/queries"
	"staybook/internal/infra/obs"
)

type Server struct {
	engine   *gin.Engine
	commands commands.Bus
	queries  queries.Bus
	log      *slog.Logger
}

type Options struct {
	Env         string
	CORSOrigins []string
}

func NewServer(cmdBus commands.Bus, queryBus queries.Bus, log *slog.Logger, opts Options) *Server {
	if opts.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(obs.RequestID(), obs.RequestLogger(log), obs.Recovery(log))

	corsCfg := cors.DefaultConfig()
	if len(opts.CORSOrigins) == 1 && opts.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.CORSOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, idempotencyHeader, obs.RequestIDHeader)
	engine.Use(cors.New(corsCfg))

	s := &Server{engine: engine, commands: cmdBus, queries: queryBus, log: log}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/livez", func(c *gin.Context) { c.Status(http.StatusOK) })
	s.engine.GET("/readyz", func(c *gin.Context) { c.Status(http.StatusOK) })

	v1 := s.engine.Group("/v1")

	v1.POST("/rentals", s.createRental)
	v1.PUT("/rentals/:id/rates", s.updateRates)
	v1.GET("/rentals/:id/calendar", s.getCalendar)
	v1.POST("/rentals/:id/calendar/blocks", s.blockDays)
	v1.DELETE("/rentals/:id/calendar/blocks", s.unblockDays)
	v1.PUT("/rentals/:id/calendar/days", s.setDayPricing)
	v1.GET("/rentals/:id/quote", s.getQuote)

	v1.POST("/bookings", s.requestBooking)
	v1.GET("/bookings/:id", s.getBooking)
	v1.GET("/bookings/:id/refund-preview", s.refundPreview)
	v1.POST("/bookings/:id/confirm", s.confirmBooking)
	v1.POST("/bookings/:id/cancel", s.cancelBooking)
	v1.POST("/bookings/:id/check-in", s.checkInBooking)
	v1.POST("/bookings/:id/check-out", s.checkOutBooking)
	v1.POST("/bookings/:id/complete", s.completeBooking)
	v1.POST("/bookings/:id/dispute", s.disputeBooking)

	v1.GET("/guests/:id/bookings", s.listGuestBookings)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}
