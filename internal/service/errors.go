// Package service implements the admission and reservation core: the
// per-event seat inventory, the seat-hold manager, the booking state
// machine, the waiting-room queue and the rotating entry-token
// generator. Handlers and background workers drive these components;
// nothing in this package touches the network.
package service

import "errors"

// Sentinel errors visible to clients. None of them is retryable as-is:
// the caller must take a different action (pick other seats, re-join
// the queue, restart checkout) rather than repeat the call. Handlers
// translate them into HTTP statuses with errors.Is.
var (
	// ErrEventNotFound is returned when the referenced event is not
	// loaded into the inventory or queue.
	ErrEventNotFound = errors.New("event not found")

	// ErrAlreadyQueued is returned by JoinQueue when the session
	// already holds a waiting or active entry for the event.
	ErrAlreadyQueued = errors.New("session already queued for this event")

	// ErrQueueFull is returned by JoinQueue when a hard waiting cap is
	// configured and reached. No cap is configured by default.
	ErrQueueFull = errors.New("queue is full")

	// ErrNotQueued is returned by GetStatus when the session has no
	// live entry for the event.
	ErrNotQueued = errors.New("session is not queued for this event")

	// ErrNotAdmitted is returned when a session tries to start
	// checkout without an active queue entry for the event.
	ErrNotAdmitted = errors.New("session has not been admitted for this event")

	// ErrTooManySeats is returned when a hold requests fewer than one
	// or more than four seats.
	ErrTooManySeats = errors.New("a hold must cover between 1 and 4 seats")

	// ErrHoldAlreadyExists is returned when the session already has an
	// open, unexpired hold for the event.
	ErrHoldAlreadyExists = errors.New("session already has an open hold for this event")

	// ErrSeatNotFound is returned when a requested seat id does not
	// exist for the event.
	ErrSeatNotFound = errors.New("seat not found")

	// ErrSeatConflict is returned when any requested seat is not
	// available. No partial hold is ever created.
	ErrSeatConflict = errors.New("one or more requested seats are unavailable")

	// ErrHoldNotFound is returned for operations on an unknown hold.
	ErrHoldNotFound = errors.New("hold not found")

	// ErrHoldExpired is returned when committing a hold whose expiry
	// deadline has passed.
	ErrHoldExpired = errors.New("hold has expired")

	// ErrBookingNotFound is returned for operations on an unknown
	// booking.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrBookingExpired is returned when confirming a booking after
	// its payment window closed. A nominally successful payment must
	// be refunded out-of-band; late payments are never accepted.
	ErrBookingExpired = errors.New("booking payment window has expired")

	// ErrInvalidTransition is returned for transitions that would
	// leave a terminal booking state, e.g. confirming a cancelled
	// booking, and for a second booking created from the same hold.
	ErrInvalidTransition = errors.New("invalid booking state transition")
)
