package model

import "time"

// QueueEntryState enumerates the waiting-room lifecycle. Waiting
// entries are promoted to active in arrival order; active entries lapse
// back out of the pool when their inactivity deadline passes. Left and
// expired are terminal, and a session with a terminal entry may join
// again at the tail.
type QueueEntryState string

const (
	QueueWaiting QueueEntryState = "waiting"
	QueueActive  QueueEntryState = "active"
	QueueExpired QueueEntryState = "expired"
	QueueLeft    QueueEntryState = "left"
)

// QueueEntry is one session's place in an event's admission queue.
// ArrivalSeq is assigned once at join time from a per-event monotonic
// counter and is the sole ordering key, so a reconnect with the same
// session id resumes the existing position instead of re-enqueueing.
//
// Fields:
//  EventID    – event the session is queueing for.
//  SessionID  – stable session identity.
//  ArrivalSeq – per-event, strictly monotonic join counter.
//  State      – waiting, active, expired or left.
//  JoinedAt   – when the session joined (UTC).
//  ActiveAt   – when the entry was promoted; zero while waiting.
//  ExpiresAt  – inactivity deadline while active; refreshed by polls.
type QueueEntry struct {
	EventID    string          // owning event
	SessionID  string          // stable across reconnects
	ArrivalSeq uint64          // ordering key
	State      QueueEntryState // current lifecycle state
	JoinedAt   time.Time       // join time (UTC)
	ActiveAt   time.Time       // promotion time, zero until promoted
	ExpiresAt  time.Time       // active-session TTL deadline
}
