package model

import "time"

// BookingStatus enumerates the booking state machine. A booking starts
// pending and moves to exactly one of the terminal states; no
// transition ever leaves a terminal state.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingExpired   BookingStatus = "expired"
)

// Terminal reports whether the status permits no further transitions.
func (s BookingStatus) Terminal() bool {
	return s == BookingConfirmed || s == BookingCancelled || s == BookingExpired
}

// Booking records one purchase attempt created from a successfully
// placed seat hold. The payment window runs from creation; a pending
// booking that misses it is expired by the sweep and its seats are
// released.
//
// Fields:
//  ID               – booking identifier (uuid).
//  EventID          – event being booked.
//  UserID           – buyer identity; the session id for anonymous buyers.
//  SessionID        – session that placed the underlying hold.
//  HoldID           – hold this booking was created from; committed or
//                     released when the booking reaches a terminal state.
//  SeatIDs          – seats covered by the booking.
//  TotalAmountCents – sum of seat prices, snapshotted at creation.
//  Status           – pending, confirmed, cancelled or expired.
//  PaymentRef       – external payment reference recorded on confirm.
//  ExpiresAt        – payment-window deadline (UTC).
//  CreatedAt        – creation timestamp (UTC).
//  UpdatedAt        – last transition timestamp (UTC).
type Booking struct {
	ID               string        // bookings.id
	EventID          string        // bookings.event_id
	UserID           string        // bookings.user_id
	SessionID        string        // session that held the seats
	HoldID           string        // originating hold
	SeatIDs          []string      // bookings -> booking_seats
	TotalAmountCents uint32        // bookings.total_amount_cents
	Status           BookingStatus // bookings.status
	PaymentRef       string        // bookings.payment_ref (empty until confirmed)
	ExpiresAt        time.Time     // bookings.expires_at
	CreatedAt        time.Time     // bookings.created_at
	UpdatedAt        time.Time     // bookings.updated_at
}
