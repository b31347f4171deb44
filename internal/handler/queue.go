// Package handler exposes the HTTP handlers for the admission,
// reservation and ticketing API. Handlers translate between the JSON
// surface and the in-memory services; every business decision lives in
// the service layer.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jjongkwann/ticketing/internal/middleware"
	"github.com/jjongkwann/ticketing/internal/model"
	"github.com/jjongkwann/ticketing/internal/service"
)

// QueueHandler serves the waiting-room endpoints.
type QueueHandler struct {
	Queue     *service.QueueService
	Inventory *service.Inventory
}

type joinQueueRequest struct {
	EventID string `json:"event_id"`
}

// queueStatusResponse is the polling view of a session's place in line.
type queueStatusResponse struct {
	EventID              string `json:"event_id"`
	State                string `json:"state"`
	Position             int    `json:"queue_position"`
	TotalWaiting         int    `json:"total_in_queue"`
	EstimatedWaitSeconds int    `json:"estimated_wait_time"`
	CanProceed           bool   `json:"can_proceed"`
}

// JoinQueue enqueues the calling session for an event. Joining twice is
// not an error from the client's point of view: the session simply gets
// its current status back, so a page reload resumes the same place in
// line.
func (h *QueueHandler) JoinQueue(c echo.Context) error {
	var req joinQueueRequest
	if err := c.Bind(&req); err != nil || req.EventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}
	if _, err := h.Inventory.Event(req.EventID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}

	sessionID := middleware.SessionID(c)
	_, err := h.Queue.Join(req.EventID, sessionID)
	switch {
	case err == nil, errors.Is(err, service.ErrAlreadyQueued):
		// fall through to report current status
	case errors.Is(err, service.ErrQueueFull):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "queue is full"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to join queue"})
	}
	return h.statusJSON(c, req.EventID, sessionID, http.StatusOK)
}

// QueueStatus reports the session's position for an event. Polling an
// admitted session also refreshes its inactivity deadline, so a buyer
// actively picking seats is never swept out of the pool.
func (h *QueueHandler) QueueStatus(c echo.Context) error {
	eventID := c.Param("event_id")
	if _, err := h.Inventory.Event(eventID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	return h.statusJSON(c, eventID, middleware.SessionID(c), http.StatusOK)
}

// LeaveQueue removes the session from an event's line. The freed slot
// is handed to the longest-waiting session immediately. Idempotent.
func (h *QueueHandler) LeaveQueue(c echo.Context) error {
	var req joinQueueRequest
	if err := c.Bind(&req); err != nil || req.EventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}
	h.Queue.Leave(req.EventID, middleware.SessionID(c))
	return c.NoContent(http.StatusNoContent)
}

func (h *QueueHandler) statusJSON(c echo.Context, eventID, sessionID string, code int) error {
	status, err := h.Queue.Status(eventID, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrNotQueued) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not queued for this event"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read queue status"})
	}
	state := string(model.QueueWaiting)
	if status.CanProceed {
		state = string(model.QueueActive)
	}
	return c.JSON(code, queueStatusResponse{
		EventID:              eventID,
		State:                state,
		Position:             status.Position,
		TotalWaiting:         status.TotalWaiting,
		EstimatedWaitSeconds: status.EstimatedWaitSeconds,
		CanProceed:           status.CanProceed,
	})
}
