package model

import "time"

// Event describes a sellable event whose seats are managed by the
// in-memory inventory. Catalog management (creation, editing) lives in
// an external service; this application only loads events and exposes
// their seat state.
//
// Fields:
//  ID        – external event identifier.
//  Title     – display title.
//  Venue     – venue name.
//  StartsAt  – scheduled start time (UTC).
//  EndsAt    – scheduled end time (UTC); entry tokens stop validating
//              after this point.
//  Sections  – pricing sections of the venue for this event.
//  CreatedAt – when the record was created.
type Event struct {
	ID        string    // events.id
	Title     string    // events.title
	Venue     string    // events.venue
	StartsAt  time.Time // events.starts_at
	EndsAt    time.Time // events.ends_at
	Sections  []Section // loaded from sections table
	CreatedAt time.Time // events.created_at
}

// Section groups seats of an event under a common price.
//
// Fields:
//  ID         – section identifier, unique within the event.
//  EventID    – owning event.
//  Name       – display name ("Floor A", "Balcony").
//  PriceCents – price of every seat in the section, in cents.
//  TotalSeats – number of seats the section was created with.
type Section struct {
	ID         string // sections.id
	EventID    string // sections.event_id
	Name       string // sections.name
	PriceCents uint32 // sections.price_cents
	TotalSeats int    // sections.total_seats
}
