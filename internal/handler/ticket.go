package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jjongkwann/ticketing/internal/service"
)

// TicketHandler serves the rotating entry token: the ticket screen a
// buyer shows at the gate and the scanner-side validation endpoint.
type TicketHandler struct {
	Bookings  *service.BookingService
	Inventory *service.Inventory
	Rotator   *service.TokenRotator
	Owned     *BookingHandler
}

type validateTicketRequest struct {
	BookingID string `json:"booking_id"`
	Token     string `json:"token"`
}

// GetTicket returns the current entry token for a confirmed booking,
// including the display string and seconds until the next rotation.
// Clients are expected to re-fetch when the countdown hits zero; a
// stale screenshot stops validating within two rotation intervals.
// After the event has ended tickets are gone for good.
func (h *TicketHandler) GetTicket(c echo.Context) error {
	booking, ok := h.Owned.ownBooking(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	now := time.Now().UTC()
	if ev, err := h.Inventory.Event(booking.EventID); err == nil && !now.Before(ev.EndsAt) {
		return c.JSON(http.StatusGone, echo.Map{"error": "event has ended"})
	}
	ticket, err := h.Rotator.Ticket(booking.ID, now)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not confirmed"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	return c.JSON(http.StatusOK, ticket)
}

// ValidateTicket is the scanner-side check. It always answers 200 with
// a verdict; the reason for a rejection is deliberately not reported so
// the response teaches forgers nothing.
func (h *TicketHandler) ValidateTicket(c echo.Context) error {
	var req validateTicketRequest
	if err := c.Bind(&req); err != nil || req.BookingID == "" || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id and token are required"})
	}
	now := time.Now().UTC()
	valid := h.Rotator.Validate(req.BookingID, req.Token, now)
	if valid {
		if booking, err := h.Bookings.Booking(req.BookingID); err == nil {
			if ev, err := h.Inventory.Event(booking.EventID); err == nil && !now.Before(ev.EndsAt) {
				valid = false
			}
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"booking_id": req.BookingID, "valid": valid})
}
