// Package middleware contains the Echo middleware the server composes
// around its handlers: stable session identity, Redis token-bucket rate
// limiting and response caching for the public browse endpoints.
package middleware

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	sessionCookieName = "tkt_session"
	sessionCtxKey     = "session_id"
	userCtxKey        = "user_id"
)

// Session issues and verifies the opaque session identity used by the
// waiting room and checkout. The identity is a random id wrapped in an
// HS256-signed cookie set on first contact, independent of login, so
// anonymous buyers can queue before authenticating and a reload or
// reconnect keeps the same place in line. An optional X-User-Id header
// (forwarded by the API gateway after authentication) is recorded as
// the buyer identity for bookings.
func Session(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if ck, err := c.Cookie(sessionCookieName); err == nil {
				sid = parseSessionToken(secret, ck.Value)
			}
			if sid == "" {
				sid = uuid.New().String()
				signed, err := newSessionToken(secret, sid)
				if err != nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to establish session"})
				}
				c.SetCookie(&http.Cookie{
					Name:     sessionCookieName,
					Value:    signed,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set(sessionCtxKey, sid)
			if uid := c.Request().Header.Get("X-User-Id"); uid != "" {
				c.Set(userCtxKey, uid)
			}
			return next(c)
		}
	}
}

// SessionID returns the session identity established by Session, or an
// empty string when the middleware did not run.
func SessionID(c echo.Context) string {
	if v, ok := c.Get(sessionCtxKey).(string); ok {
		return v
	}
	return ""
}

// UserID returns the authenticated buyer identity when the gateway
// forwarded one, falling back to the session id for anonymous buyers.
func UserID(c echo.Context) string {
	if v, ok := c.Get(userCtxKey).(string); ok && v != "" {
		return v
	}
	return SessionID(c)
}

// newSessionToken signs a session id into a compact HS256 JWT. The
// cookie is browser-session scoped; the token itself carries no expiry
// because the queue's own TTLs bound how long an identity matters.
func newSessionToken(secret, sid string) (string, error) {
	claims := jwt.MapClaims{
		"sid": sid,
		"iat": time.Now().UTC().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// parseSessionToken verifies the signature and extracts the session id.
// Any parse or signature failure yields an empty string so the caller
// mints a fresh identity.
func parseSessionToken(secret, token string) string {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return ""
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sid, _ := claims["sid"].(string)
	return sid
}
