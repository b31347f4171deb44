package model

// TicketToken is the rotating entry token displayed for a confirmed
// booking. The value is derived deterministically from the booking id
// and the current rotation interval, so nothing beyond the signing
// secret is ever stored; only the current and immediately prior values
// validate at the gate.
//
// Fields:
//  BookingID        – booking the token proves possession of.
//  Value            – current token value.
//  Display          – the string rendered by clients, "{booking_id}:{value}".
//  IssuedAtInterval – rotation interval index the value was derived for.
//  RotationSeconds  – rotation period in seconds.
//  SecondsRemaining – seconds until the value changes.
type TicketToken struct {
	BookingID        string `json:"booking_id"`
	Value            string `json:"token"`
	Display          string `json:"display"`
	IssuedAtInterval int64  `json:"issued_at_interval"`
	RotationSeconds  int    `json:"rotation_seconds"`
	SecondsRemaining int    `json:"seconds_remaining"`
}
