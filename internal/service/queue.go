package service

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jjongkwann/ticketing/internal/model"
)

// QueueConfig tunes the waiting room. PoolCapacity bounds how many
// sessions may check out concurrently per event; AdmitPerSecond is the
// promotion-rate estimate used for wait-time hints; ActiveTTL is how
// long an admitted session may stay idle before its slot is reclaimed.
// MaxWaiting, when positive, is a hard cap on the waiting line (off by
// default: the pool throttles promotion, not joining).
type QueueConfig struct {
	PoolCapacity   int
	AdmitPerSecond float64
	ActiveTTL      time.Duration
	MaxWaiting     int
}

// QueueStatus is the polling view of one session's place in line.
type QueueStatus struct {
	Position             int
	TotalWaiting         int
	EstimatedWaitSeconds int
	CanProceed           bool
}

// QueueService is the fair-admission gate in front of checkout. Each
// event keeps an independent FIFO line ordered by a strictly monotonic
// arrival sequence assigned at join time; a periodic sweep (and every
// slot-freeing operation) promotes the longest-waiting sessions into
// the bounded active pool. Session identity is stable across
// reconnects, so the same session always resumes its position instead
// of re-enqueueing at the tail.
type QueueService struct {
	cfg QueueConfig

	mu     sync.RWMutex
	events map[string]*eventQueue
}

// eventQueue is one event's line. Fields other than the mutex are
// accessed only with mu held. waiting holds only entries in the
// waiting state, in arrival order, so positions are always a gapless
// 1..len(waiting) permutation.
type eventQueue struct {
	mu      sync.Mutex
	nextSeq uint64
	entries map[string]*model.QueueEntry // live entries by session id
	waiting []*model.QueueEntry
	active  map[string]*model.QueueEntry
}

// NewQueueService returns a waiting room with the given tuning.
func NewQueueService(cfg QueueConfig) *QueueService {
	if cfg.PoolCapacity <= 0 {
		cfg.PoolCapacity = 1
	}
	if cfg.AdmitPerSecond <= 0 {
		cfg.AdmitPerSecond = 1
	}
	return &QueueService{cfg: cfg, events: make(map[string]*eventQueue)}
}

func (q *QueueService) queueFor(eventID string) *eventQueue {
	q.mu.RLock()
	eq, ok := q.events[eventID]
	q.mu.RUnlock()
	if ok {
		return eq
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if eq, ok = q.events[eventID]; ok {
		return eq
	}
	eq = &eventQueue{
		entries: make(map[string]*model.QueueEntry),
		active:  make(map[string]*model.QueueEntry),
	}
	q.events[eventID] = eq
	return eq
}

// Join adds a session to an event's line. A session with a live
// (waiting or active) entry cannot join twice and gets
// ErrAlreadyQueued; a session whose previous entry ended may join again
// at the tail. When the pool has spare capacity and nobody waits ahead
// the entry is admitted immediately.
func (q *QueueService) Join(eventID, sessionID string) (model.QueueEntry, error) {
	eq := q.queueFor(eventID)
	now := time.Now().UTC()

	eq.mu.Lock()
	defer eq.mu.Unlock()
	if _, live := eq.entries[sessionID]; live {
		return model.QueueEntry{}, ErrAlreadyQueued
	}
	if q.cfg.MaxWaiting > 0 && len(eq.waiting) >= q.cfg.MaxWaiting {
		return model.QueueEntry{}, ErrQueueFull
	}
	eq.nextSeq++
	entry := &model.QueueEntry{
		EventID:    eventID,
		SessionID:  sessionID,
		ArrivalSeq: eq.nextSeq,
		State:      model.QueueWaiting,
		JoinedAt:   now,
	}
	eq.entries[sessionID] = entry
	if len(eq.active) < q.cfg.PoolCapacity && len(eq.waiting) == 0 {
		q.activateLocked(eq, entry, now)
	} else {
		eq.waiting = append(eq.waiting, entry)
	}
	return *entry, nil
}

// Status reports a session's position and whether it may proceed to
// checkout. Position counts waiting entries that arrived earlier, plus
// one; the wait estimate divides it by the configured admission rate.
// Polling an active entry refreshes its inactivity deadline.
func (q *QueueService) Status(eventID, sessionID string) (QueueStatus, error) {
	eq := q.queueFor(eventID)
	now := time.Now().UTC()

	eq.mu.Lock()
	defer eq.mu.Unlock()
	entry, ok := eq.entries[sessionID]
	if !ok {
		return QueueStatus{}, ErrNotQueued
	}
	if entry.State == model.QueueActive {
		entry.ExpiresAt = now.Add(q.cfg.ActiveTTL)
		return QueueStatus{TotalWaiting: len(eq.waiting), CanProceed: true}, nil
	}
	position := 1
	for _, w := range eq.waiting {
		if w.ArrivalSeq < entry.ArrivalSeq {
			position++
		}
	}
	return QueueStatus{
		Position:             position,
		TotalWaiting:         len(eq.waiting),
		EstimatedWaitSeconds: int(math.Ceil(float64(position) / q.cfg.AdmitPerSecond)),
	}, nil
}

// Leave removes a session from the line. Idempotent: leaving when not
// queued is a no-op. A freed pool slot is handed to the next waiting
// session immediately rather than at the next sweep tick.
func (q *QueueService) Leave(eventID, sessionID string) {
	eq := q.queueFor(eventID)
	now := time.Now().UTC()

	eq.mu.Lock()
	defer eq.mu.Unlock()
	entry, ok := eq.entries[sessionID]
	if !ok {
		return
	}
	q.removeLocked(eq, entry, model.QueueLeft)
	q.promoteLocked(eq, now)
}

// IsActive reports whether the session currently occupies a pool slot
// for the event. Checkout handlers gate on this.
func (q *QueueService) IsActive(eventID, sessionID string) bool {
	eq := q.queueFor(eventID)
	eq.mu.Lock()
	defer eq.mu.Unlock()
	entry, ok := eq.entries[sessionID]
	return ok && entry.State == model.QueueActive
}

// RequireActive is the checkout gate: it fails with ErrNotAdmitted
// unless the session currently occupies a pool slot for the event.
func (q *QueueService) RequireActive(eventID, sessionID string) error {
	if !q.IsActive(eventID, sessionID) {
		return ErrNotAdmitted
	}
	return nil
}

// Promote runs one promotion pass for an event, filling free pool slots
// in arrival order. Returns the promoted entries.
func (q *QueueService) Promote(eventID string) []model.QueueEntry {
	eq := q.queueFor(eventID)
	now := time.Now().UTC()
	eq.mu.Lock()
	defer eq.mu.Unlock()
	return q.promoteLocked(eq, now)
}

// Sweep expires idle active sessions and promotes waiting ones across
// all events. Runs periodically and is safe alongside request handlers.
func (q *QueueService) Sweep(now time.Time) {
	q.mu.RLock()
	queues := make([]*eventQueue, 0, len(q.events))
	for _, eq := range q.events {
		queues = append(queues, eq)
	}
	q.mu.RUnlock()

	for _, eq := range queues {
		eq.mu.Lock()
		expired := 0
		for _, entry := range eq.active {
			if !now.Before(entry.ExpiresAt) {
				q.removeLocked(eq, entry, model.QueueExpired)
				expired++
			}
		}
		promoted := q.promoteLocked(eq, now)
		eq.mu.Unlock()
		if expired > 0 || len(promoted) > 0 {
			slog.Info("queue sweep", "expired", expired, "promoted", len(promoted))
		}
	}
}

// activateLocked admits an entry into the pool. Queue mutex held.
func (q *QueueService) activateLocked(eq *eventQueue, entry *model.QueueEntry, now time.Time) {
	entry.State = model.QueueActive
	entry.ActiveAt = now
	entry.ExpiresAt = now.Add(q.cfg.ActiveTTL)
	eq.active[entry.SessionID] = entry
}

// promoteLocked admits the smallest-arrivalSeq waiting entries while
// the pool has room. Queue mutex held.
func (q *QueueService) promoteLocked(eq *eventQueue, now time.Time) []model.QueueEntry {
	var promoted []model.QueueEntry
	for len(eq.active) < q.cfg.PoolCapacity && len(eq.waiting) > 0 {
		entry := eq.waiting[0]
		eq.waiting = eq.waiting[1:]
		q.activateLocked(eq, entry, now)
		promoted = append(promoted, *entry)
	}
	return promoted
}

// removeLocked moves an entry to a terminal state and forgets it, so
// the session may queue again later. Queue mutex held.
func (q *QueueService) removeLocked(eq *eventQueue, entry *model.QueueEntry, state model.QueueEntryState) {
	entry.State = state
	delete(eq.entries, entry.SessionID)
	delete(eq.active, entry.SessionID)
	for i, w := range eq.waiting {
		if w.SessionID == entry.SessionID {
			eq.waiting = append(eq.waiting[:i], eq.waiting[i+1:]...)
			break
		}
	}
}
