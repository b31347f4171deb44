// Package router wires the HTTP surface: which handler answers which
// route and which middleware runs in front of it.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/jjongkwann/ticketing/internal/config"
	"github.com/jjongkwann/ticketing/internal/handler"
	"github.com/jjongkwann/ticketing/internal/middleware"
)

// Handlers bundles everything the router registers.
type Handlers struct {
	Events   *handler.EventHandler
	Queue    *handler.QueueHandler
	Bookings *handler.BookingHandler
	Tickets  *handler.TicketHandler
}

// Register mounts all routes on the Echo instance. Browse endpoints sit
// behind the short-TTL response cache; the whole /v1 surface shares the
// token-bucket limiter and the session middleware that mints the stable
// identity the queue keys on.
func Register(e *echo.Echo, h Handlers, cfg *config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	v1.Use(middleware.Session(cfg.SessionSecret))
	v1.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// Browse. Cached: seat maps are polled aggressively while buyers
	// pick seats, and a seconds-stale map is harmless because the hold
	// path re-checks authoritatively.
	browse := v1.Group("", middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	browse.GET("/events", h.Events.ListEvents)
	browse.GET("/events/:id", h.Events.GetEvent)
	browse.GET("/events/:id/seats", h.Events.GetEventSeats)

	// Waiting room.
	v1.POST("/queue/join", h.Queue.JoinQueue)
	v1.GET("/queue/status/:event_id", h.Queue.QueueStatus)
	v1.POST("/queue/leave", h.Queue.LeaveQueue)

	// Checkout and booking lifecycle.
	v1.POST("/bookings", h.Bookings.CreateBooking)
	v1.GET("/bookings/:id", h.Bookings.GetBooking)
	v1.POST("/bookings/:id/confirm", h.Bookings.ConfirmBooking)
	v1.POST("/bookings/:id/cancel", h.Bookings.CancelBooking)

	// Entry tokens.
	v1.GET("/bookings/:id/ticket", h.Tickets.GetTicket)
	v1.POST("/tickets/validate", h.Tickets.ValidateTicket)
}
