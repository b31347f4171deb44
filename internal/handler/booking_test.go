package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjongkwann/ticketing/internal/model"
	"github.com/jjongkwann/ticketing/internal/service"
)

// fixture wires the full service stack behind the handlers, with one
// event of four seats at 2500 cents each.
type fixture struct {
	inv      *service.Inventory
	queue    *service.QueueService
	holds    *service.HoldManager
	bookings *service.BookingService
	rotator  *service.TokenRotator
	event    model.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ev := model.Event{
		ID:       "ev-1",
		Title:    "Arena Night",
		Venue:    "Main Arena",
		StartsAt: time.Now().UTC().Add(24 * time.Hour),
		EndsAt:   time.Now().UTC().Add(27 * time.Hour),
		Sections: []model.Section{{ID: "sec-a", EventID: "ev-1", Name: "Floor A", PriceCents: 2500, TotalSeats: 4}},
	}
	seats := make([]model.Seat, 0, 4)
	for i := 1; i <= 4; i++ {
		seats = append(seats, model.Seat{ID: fmt.Sprintf("A-%d", i), SectionID: "sec-a", Row: "A", Number: i, PriceCents: 2500})
	}
	inv := service.NewInventory()
	inv.LoadEvent(ev, seats)

	queue := service.NewQueueService(service.QueueConfig{PoolCapacity: 2, AdmitPerSecond: 1, ActiveTTL: time.Minute})
	holds := service.NewHoldManager(inv)
	bookings := service.NewBookingService(holds, 10*time.Minute, nil)
	rotator := service.NewTokenRotator("gate-secret", time.Minute, bookings)
	return &fixture{inv: inv, queue: queue, holds: holds, bookings: bookings, rotator: rotator, event: ev}
}

func (f *fixture) bookingHandler() *BookingHandler {
	return &BookingHandler{
		Queue:     f.queue,
		Holds:     f.holds,
		Bookings:  f.bookings,
		Inventory: f.inv,
		HoldTTL:   time.Minute,
	}
}

// request builds an echo context carrying the given session identity,
// the way the session middleware would have left it.
func request(t *testing.T, method, target, body, session string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("session_id", session)
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreateBookingRejectsUnadmittedSession(t *testing.T) {
	f := newFixture(t)
	h := f.bookingHandler()

	c, rec := request(t, http.MethodPost, "/v1/bookings", `{"event_id":"ev-1","seat_ids":["A-1"]}`, "s1")
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not admitted", decodeBody(t, rec)["error"])
}

func TestCreateBookingHappyPath(t *testing.T) {
	f := newFixture(t)
	h := f.bookingHandler()
	_, err := f.queue.Join("ev-1", "s1")
	require.NoError(t, err)

	c, rec := request(t, http.MethodPost, "/v1/bookings", `{"event_id":"ev-1","seat_ids":["A-1","A-2"]}`, "s1")
	require.NoError(t, h.CreateBooking(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, float64(5000), body["total_amount_cents"])
	assert.NotEmpty(t, body["booking_id"])

	seats, err := f.inv.Seats("ev-1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatHeld, seats[0].Status)
}

func TestCreateBookingSeatConflict(t *testing.T) {
	f := newFixture(t)
	h := f.bookingHandler()
	for _, s := range []string{"s1", "s2"} {
		_, err := f.queue.Join("ev-1", s)
		require.NoError(t, err)
	}

	c, rec := request(t, http.MethodPost, "/v1/bookings", `{"event_id":"ev-1","seat_ids":["A-1"]}`, "s1")
	require.NoError(t, h.CreateBooking(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c, rec = request(t, http.MethodPost, "/v1/bookings", `{"event_id":"ev-1","seat_ids":["A-1","A-2"]}`, "s2")
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "seat conflict", decodeBody(t, rec)["error"])
}

func TestCreateBookingValidatesSeatCount(t *testing.T) {
	f := newFixture(t)
	h := f.bookingHandler()
	_, err := f.queue.Join("ev-1", "s1")
	require.NoError(t, err)

	c, rec := request(t, http.MethodPost, "/v1/bookings", `{"event_id":"ev-1","seat_ids":[]}`, "s1")
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBookingHidesOtherSessionsBookings(t *testing.T) {
	f := newFixture(t)
	h := f.bookingHandler()
	_, err := f.queue.Join("ev-1", "s1")
	require.NoError(t, err)

	hold, err := f.holds.HoldSeats("ev-1", "s1", []string{"A-1"}, time.Minute)
	require.NoError(t, err)
	booking, err := f.bookings.CreateBooking("ev-1", "s1", "s1", hold.ID)
	require.NoError(t, err)

	c, rec := request(t, http.MethodGet, "/v1/bookings/"+booking.ID, "", "s1")
	c.SetParamNames("id")
	c.SetParamValues(booking.ID)
	require.NoError(t, h.GetBooking(c))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotNil(t, body["event"])
	assert.NotNil(t, body["seats"])

	c, rec = request(t, http.MethodGet, "/v1/bookings/"+booking.ID, "", "someone-else")
	c.SetParamNames("id")
	c.SetParamValues(booking.ID)
	require.NoError(t, h.GetBooking(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelBookingReleasesSeats(t *testing.T) {
	f := newFixture(t)
	h := f.bookingHandler()

	hold, err := f.holds.HoldSeats("ev-1", "s1", []string{"A-1"}, time.Minute)
	require.NoError(t, err)
	booking, err := f.bookings.CreateBooking("ev-1", "s1", "s1", hold.ID)
	require.NoError(t, err)

	c, rec := request(t, http.MethodPost, "/v1/bookings/"+booking.ID+"/cancel", "", "s1")
	c.SetParamNames("id")
	c.SetParamValues(booking.ID)
	require.NoError(t, h.CancelBooking(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	got, err := f.bookings.Booking(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, got.Status)

	seats, err := f.inv.Seats("ev-1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatAvailable, seats[0].Status)
}
