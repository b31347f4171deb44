package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jjongkwann/ticketing/internal/events"
	"github.com/jjongkwann/ticketing/internal/middleware"
	"github.com/jjongkwann/ticketing/internal/model"
	"github.com/jjongkwann/ticketing/internal/service"
)

// BookingHandler serves checkout: placing seat holds, creating bookings
// and driving them through the payment lifecycle. Checkout is gated on
// queue admission; a session that never passed the waiting room cannot
// hold seats no matter what it sends.
type BookingHandler struct {
	Queue     *service.QueueService
	Holds     *service.HoldManager
	Bookings  *service.BookingService
	Inventory *service.Inventory
	HoldTTL   time.Duration
}

type createBookingRequest struct {
	EventID string   `json:"event_id"`
	SeatIDs []string `json:"seat_ids"`
}

type confirmBookingRequest struct {
	PaymentRef string `json:"payment_ref"`
}

// bookingResponse is the client view of a booking. Deadlines are
// reported as absolute UTC timestamps; the client renders a countdown
// but the server alone decides when the window closes.
type bookingResponse struct {
	ID               string     `json:"booking_id"`
	EventID          string     `json:"event_id"`
	Status           string     `json:"status"`
	SeatIDs          []string   `json:"seat_ids"`
	TotalAmountCents uint32     `json:"total_amount_cents"`
	PaymentRef       string     `json:"payment_ref,omitempty"`
	ExpiresAt        time.Time  `json:"expires_at"`
	CreatedAt        time.Time  `json:"created_at"`
	Event            *eventView `json:"event,omitempty"`
	Seats            []seatView `json:"seats,omitempty"`
}

func bookingJSON(b model.Booking) bookingResponse {
	return bookingResponse{
		ID:               b.ID,
		EventID:          b.EventID,
		Status:           string(b.Status),
		SeatIDs:          b.SeatIDs,
		TotalAmountCents: b.TotalAmountCents,
		PaymentRef:       b.PaymentRef,
		ExpiresAt:        b.ExpiresAt,
		CreatedAt:        b.CreatedAt,
	}
}

// CreateBooking holds the requested seats and opens a pending booking
// in one step. The caller must currently occupy a pool slot for the
// event; the hold and the payment window both start now. The all-or-
// nothing seat claim means a partial overlap with someone else's hold
// fails without touching any seat.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req createBookingRequest
	if err := c.Bind(&req); err != nil || req.EventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and seat_ids are required"})
	}
	sessionID := middleware.SessionID(c)
	if err := h.Queue.RequireActive(req.EventID, sessionID); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not admitted", "message": "join the queue and wait for your turn"})
	}

	hold, err := h.Holds.HoldSeats(req.EventID, sessionID, req.SeatIDs, h.HoldTTL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, service.ErrTooManySeats):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "between 1 and 4 seats per booking"})
		case errors.Is(err, service.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, service.ErrHoldAlreadyExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "an open hold already exists for this session"})
		case errors.Is(err, service.ErrSeatConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat conflict", "message": "one or more seats are no longer available"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to hold seats"})
		}
	}

	booking, err := h.Bookings.CreateBooking(req.EventID, middleware.UserID(c), sessionID, hold.ID)
	if err != nil {
		h.Holds.ReleaseHold(hold.ID)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}
	return c.JSON(http.StatusCreated, bookingJSON(booking))
}

// GetBooking returns one booking with its event and seat details
// embedded. Bookings are visible only to the session or user that made
// them; anyone else sees 404 so booking ids leak nothing.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	booking, ok := h.ownBooking(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	resp := bookingJSON(booking)
	if ev, err := h.Inventory.Event(booking.EventID); err == nil {
		v := eventJSON(ev)
		resp.Event = &v
	}
	if seats, err := h.Inventory.SeatDetails(booking.EventID, booking.SeatIDs); err == nil {
		resp.Seats = make([]seatView, 0, len(seats))
		for _, s := range seats {
			resp.Seats = append(resp.Seats, seatJSON(s))
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// ConfirmBooking records a completed payment. Confirming after the
// window closed fails with 409 regardless of the payment outcome; the
// seats were already released and the caller must refund out-of-band.
// On success a broker event is published best-effort for downstream
// consumers.
func (h *BookingHandler) ConfirmBooking(c echo.Context) error {
	var req confirmBookingRequest
	if err := c.Bind(&req); err != nil || req.PaymentRef == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_ref is required"})
	}
	if _, ok := h.ownBooking(c); !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}

	ctx := c.Request().Context()
	booking, err := h.Bookings.ConfirmBooking(ctx, c.Param("id"), req.PaymentRef)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, service.ErrBookingExpired):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking expired", "message": "the payment window has closed"})
		case errors.Is(err, service.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not pending"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm booking"})
		}
	}

	ev, evErr := h.Inventory.Event(booking.EventID)
	msg := events.BookingConfirmedEvent{
		BookingID:        booking.ID,
		EventID:          booking.EventID,
		UserID:           booking.UserID,
		SeatIDs:          booking.SeatIDs,
		TotalAmountCents: booking.TotalAmountCents,
		PaymentRef:       booking.PaymentRef,
		ConfirmedAt:      booking.UpdatedAt.Format(time.RFC3339),
	}
	if evErr == nil {
		msg.EventTitle = ev.Title
		msg.Venue = ev.Venue
	}
	_ = events.PublishBookingConfirmed(ctx, msg)

	return c.JSON(http.StatusOK, bookingJSON(booking))
}

// CancelBooking cancels a pending or confirmed booking. Pending
// cancellations free the held seats immediately; confirmed ones only
// flip state, the seats stay sold pending external refund handling.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	if _, ok := h.ownBooking(c); !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	_, err := h.Bookings.CancelBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, service.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking cannot be cancelled"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// ownBooking loads the booking named in the path and checks it belongs
// to the caller.
func (h *BookingHandler) ownBooking(c echo.Context) (model.Booking, bool) {
	booking, err := h.Bookings.Booking(c.Param("id"))
	if err != nil {
		return model.Booking{}, false
	}
	if booking.SessionID != middleware.SessionID(c) && booking.UserID != middleware.UserID(c) {
		return model.Booking{}, false
	}
	return booking, true
}
