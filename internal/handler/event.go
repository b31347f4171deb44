package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jjongkwann/ticketing/internal/model"
	"github.com/jjongkwann/ticketing/internal/service"
)

// EventHandler serves the public browse endpoints. All reads come from
// the in-memory inventory snapshots, so browsing never contends with a
// checkout beyond the brief per-event lock a snapshot takes.
type EventHandler struct {
	Inventory *service.Inventory
}

// eventView is an event in list and detail responses.
type eventView struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Venue    string        `json:"venue"`
	StartsAt time.Time     `json:"starts_at"`
	EndsAt   time.Time     `json:"ends_at"`
	Sections []sectionView `json:"sections,omitempty"`
}

type sectionView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents uint32 `json:"price_cents"`
	TotalSeats int    `json:"total_seats"`
}

// seatView is a seat in map and booking-detail responses. Hold internals
// (who holds it, until when) are not exposed.
type seatView struct {
	ID         string `json:"id"`
	SectionID  string `json:"section_id"`
	Row        string `json:"row"`
	Number     int    `json:"number"`
	Status     string `json:"status"`
	PriceCents uint32 `json:"price_cents"`
}

func eventJSON(ev model.Event) eventView {
	v := eventView{
		ID:       ev.ID,
		Title:    ev.Title,
		Venue:    ev.Venue,
		StartsAt: ev.StartsAt,
		EndsAt:   ev.EndsAt,
	}
	for _, sec := range ev.Sections {
		v.Sections = append(v.Sections, sectionView{
			ID:         sec.ID,
			Name:       sec.Name,
			PriceCents: sec.PriceCents,
			TotalSeats: sec.TotalSeats,
		})
	}
	return v
}

func seatJSON(s model.Seat) seatView {
	return seatView{
		ID:         s.ID,
		SectionID:  s.SectionID,
		Row:        s.Row,
		Number:     s.Number,
		Status:     string(s.Status),
		PriceCents: s.PriceCents,
	}
}

// ListEvents returns every event currently on sale on this server.
func (h *EventHandler) ListEvents(c echo.Context) error {
	evs := h.Inventory.Events()
	out := make([]eventView, 0, len(evs))
	for _, ev := range evs {
		out = append(out, eventJSON(ev))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetEvent returns one event with per-section availability counts.
func (h *EventHandler) GetEvent(c echo.Context) error {
	eventID := c.Param("id")
	ev, err := h.Inventory.Event(eventID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	availability, err := h.Inventory.Availability(eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event":        eventJSON(ev),
		"availability": availability,
	})
}

// GetEventSeats returns the full seat map of an event, in layout order.
func (h *EventHandler) GetEventSeats(c echo.Context) error {
	seats, err := h.Inventory.Seats(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	out := make([]seatView, 0, len(seats))
	for _, s := range seats {
		out = append(out, seatJSON(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
