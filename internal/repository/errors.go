// Package repository provides data access to the catalog database. The
// catalog (events, sections, seats) is read once at startup into the
// in-memory inventory; bookings are written behind as they reach
// confirmed or terminal states. Sentinel errors let higher layers
// distinguish failure scenarios with errors.Is.
package repository

import "errors"

// ErrEventNotFound is returned when a requested event id has no row in
// the events table.
var ErrEventNotFound = errors.New("event not found in catalog")
