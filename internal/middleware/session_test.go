package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-session-secret"

// runSession sends one request through the Session middleware and
// returns the identity it established plus the recorder.
func runSession(t *testing.T, req *http.Request) (sid, uid string, rec *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := Session(testSecret)(func(c echo.Context) error {
		sid = SessionID(c)
		uid = UserID(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return sid, uid, rec
}

func TestSessionMintsIdentityOnFirstContact(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sid, _, rec := runSession(t, req)

	assert.NotEmpty(t, sid)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestSessionIdentityIsStableAcrossRequests(t *testing.T) {
	first := httptest.NewRequest(http.MethodGet, "/", nil)
	sid1, _, rec := runSession(t, first)
	cookie := rec.Result().Cookies()[0]

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.AddCookie(cookie)
	sid2, _, rec2 := runSession(t, second)

	assert.Equal(t, sid1, sid2)
	assert.Empty(t, rec2.Result().Cookies(), "no new cookie when identity is valid")
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	first := httptest.NewRequest(http.MethodGet, "/", nil)
	sid1, _, rec := runSession(t, first)
	cookie := rec.Result().Cookies()[0]
	cookie.Value += "x"

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.AddCookie(cookie)
	sid2, _, rec2 := runSession(t, second)

	assert.NotEqual(t, sid1, sid2, "tampered cookie must yield a fresh identity")
	assert.Len(t, rec2.Result().Cookies(), 1)
}

func TestUserIDPrefersGatewayHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Id", "user-42")
	sid, uid, _ := runSession(t, req)
	assert.Equal(t, "user-42", uid)
	assert.NotEqual(t, sid, uid)

	anon := httptest.NewRequest(http.MethodGet, "/", nil)
	sid2, uid2, _ := runSession(t, anon)
	assert.Equal(t, sid2, uid2, "anonymous buyers fall back to the session id")
}
