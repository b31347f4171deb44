package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListEvents(t *testing.T) {
	f := newFixture(t)
	h := &EventHandler{Inventory: f.inv}

	c, rec := request(t, http.MethodGet, "/v1/events", "", "s1")
	require.NoError(t, h.ListEvents(c))
	require.Equal(t, http.StatusOK, rec.Code)

	items, ok := decodeBody(t, rec)["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	ev := items[0].(map[string]any)
	assert.Equal(t, "ev-1", ev["id"])
	assert.Equal(t, "Arena Night", ev["title"])
}

func TestGetEventWithAvailability(t *testing.T) {
	f := newFixture(t)
	h := &EventHandler{Inventory: f.inv}

	_, err := f.holds.HoldSeats("ev-1", "s1", []string{"A-1"}, time.Minute)
	require.NoError(t, err)

	c, rec := request(t, http.MethodGet, "/v1/events/ev-1", "", "s1")
	c.SetParamNames("id")
	c.SetParamValues("ev-1")
	require.NoError(t, h.GetEvent(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	avail, ok := body["availability"].([]any)
	require.True(t, ok)
	require.Len(t, avail, 1)
	section := avail[0].(map[string]any)
	assert.Equal(t, float64(3), section["available"])
	assert.Equal(t, float64(1), section["held"])
	assert.Equal(t, float64(0), section["sold"])
}

func TestGetEventSeatsStatuses(t *testing.T) {
	f := newFixture(t)
	h := &EventHandler{Inventory: f.inv}

	c, rec := request(t, http.MethodGet, "/v1/events/ev-1/seats", "", "s1")
	c.SetParamNames("id")
	c.SetParamValues("ev-1")
	require.NoError(t, h.GetEventSeats(c))
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeBody(t, rec)["items"].([]any)
	require.Len(t, items, 4)
	first := items[0].(map[string]any)
	assert.Equal(t, "A-1", first["id"])
	assert.Equal(t, "available", first["status"])

	c, rec = request(t, http.MethodGet, "/v1/events/nope/seats", "", "s1")
	c.SetParamNames("id")
	c.SetParamValues("nope")
	require.NoError(t, h.GetEventSeats(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
