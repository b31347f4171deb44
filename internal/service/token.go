package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/jjongkwann/ticketing/internal/model"
)

// tokenDisplayBytes is how much of the HMAC survives truncation for
// display; 8 bytes render as 16 hex characters on the ticket screen.
const tokenDisplayBytes = 8

// BookingStatusSource exposes the booking state the rotator needs.
// Tokens exist only for confirmed bookings.
type BookingStatusSource interface {
	Status(bookingID string) (model.BookingStatus, error)
}

// TokenRotator derives the rotating entry token shown for a confirmed
// booking. The value is HMAC-SHA256(secret, bookingId:intervalIndex),
// truncated and hex-encoded, so a screenshot goes stale after at most
// two rotation intervals and nothing but the secret is ever stored.
// Validation accepts the current and the immediately preceding interval
// to absorb clock skew and scan latency at the gate.
type TokenRotator struct {
	secret   []byte
	interval time.Duration
	bookings BookingStatusSource
}

// NewTokenRotator returns a rotator signing with secret and rotating
// every interval (60s is the conventional gate setting).
func NewTokenRotator(secret string, interval time.Duration, bookings BookingStatusSource) *TokenRotator {
	if interval <= 0 {
		interval = time.Minute
	}
	return &TokenRotator{secret: []byte(secret), interval: interval, bookings: bookings}
}

// CurrentToken returns the token value for the rotation interval
// containing now. It fails with ErrBookingNotFound for unknown bookings
// and ErrInvalidTransition for bookings that are not confirmed.
func (t *TokenRotator) CurrentToken(bookingID string, now time.Time) (string, error) {
	status, err := t.bookings.Status(bookingID)
	if err != nil {
		return "", err
	}
	if status != model.BookingConfirmed {
		return "", ErrInvalidTransition
	}
	return t.tokenAt(bookingID, t.intervalIndex(now)), nil
}

// Ticket builds the display view of the current token, including the
// "{booking_id}:{token}" string clients render and the seconds left
// until the next rotation.
func (t *TokenRotator) Ticket(bookingID string, now time.Time) (model.TicketToken, error) {
	value, err := t.CurrentToken(bookingID, now)
	if err != nil {
		return model.TicketToken{}, err
	}
	idx := t.intervalIndex(now)
	next := time.Unix(0, (idx+1)*t.interval.Nanoseconds())
	return model.TicketToken{
		BookingID:        bookingID,
		Value:            value,
		Display:          bookingID + ":" + value,
		IssuedAtInterval: idx,
		RotationSeconds:  int(t.interval / time.Second),
		SecondsRemaining: int(next.Sub(now).Seconds()),
	}, nil
}

// Validate reports whether a presented token proves possession of the
// booking at the given instant. The current and immediately preceding
// interval values are accepted; anything else, and any booking that is
// not confirmed, is rejected.
func (t *TokenRotator) Validate(bookingID, presented string, now time.Time) bool {
	status, err := t.bookings.Status(bookingID)
	if err != nil || status != model.BookingConfirmed {
		return false
	}
	presented = strings.ToLower(strings.TrimSpace(presented))
	idx := t.intervalIndex(now)
	for _, candidate := range []int64{idx, idx - 1} {
		if hmac.Equal([]byte(presented), []byte(t.tokenAt(bookingID, candidate))) {
			return true
		}
	}
	return false
}

// RotationInterval exposes the configured rotation period.
func (t *TokenRotator) RotationInterval() time.Duration {
	return t.interval
}

func (t *TokenRotator) intervalIndex(now time.Time) int64 {
	return now.UnixNano() / t.interval.Nanoseconds()
}

func (t *TokenRotator) tokenAt(bookingID string, interval int64) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(bookingID))
	mac.Write([]byte(":"))
	mac.Write([]byte(strconv.FormatInt(interval, 10)))
	sum := mac.Sum(nil)
	return hex.EncodeToString(sum[:tokenDisplayBytes])
}
