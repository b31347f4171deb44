package model

import "time"

// SeatHold is a temporary, all-or-nothing claim on a set of seats made
// by one session during checkout. Holds prevent concurrent buyers from
// grabbing the same seats while a purchase is in flight and expire
// automatically at ExpiresAt. A hold is destroyed when it is committed
// into a booking or when it lapses.
//
// Fields:
//  ID        – opaque hold identifier returned to the caller.
//  EventID   – event the seats belong to.
//  SessionID – session that placed the hold.
//  SeatIDs   – between one and four seats, claimed atomically.
//  CreatedAt – when the hold was placed.
//  ExpiresAt – when the hold lapses and the seats are released.
type SeatHold struct {
	ID        string    // hold id (uuid)
	EventID   string    // owning event
	SessionID string    // holding session
	SeatIDs   []string  // seats claimed by this hold
	CreatedAt time.Time // placement time (UTC)
	ExpiresAt time.Time // expiry deadline (UTC)
}

// Expired reports whether the hold has lapsed at the given instant.
func (h *SeatHold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}
