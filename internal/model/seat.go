package model

import "time"

// SeatStatus enumerates the lifecycle of a single seat. A seat is
// available until a hold claims it, held while a session checks out and
// sold once a booking commits. Expired holds return the seat to
// available.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatHeld      SeatStatus = "held"
	SeatSold      SeatStatus = "sold"
)

// Seat is the authoritative state of one seat of an event. Seats are
// owned by the inventory and mutated only through the hold manager, so
// a seat is held or sold by at most one session/booking at a time.
//
// Fields:
//  ID            – seat identifier, unique within the event ("A-12").
//  EventID       – owning event.
//  SectionID     – section the seat belongs to.
//  Row           – row label within the section.
//  Number        – seat number within the row.
//  Status        – available, held or sold.
//  PriceCents    – price in cents, copied from the section at load time.
//  HeldBy        – session currently holding the seat; empty otherwise.
//  HoldExpiresAt – when the current hold lapses; zero unless held.
type Seat struct {
	ID            string     // seats.id
	EventID       string     // seats.event_id
	SectionID     string     // seats.section_id
	Row           string     // seats.row_label
	Number        int        // seats.number
	Status        SeatStatus // derived while the server owns the event
	PriceCents    uint32     // seats.price_cents
	HeldBy        string     // session id of the holder, if any
	HoldExpiresAt time.Time  // zero unless Status == held
}
