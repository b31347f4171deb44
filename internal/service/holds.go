package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jjongkwann/ticketing/internal/model"
)

// Seat-count limits per hold.
const (
	MinSeatsPerHold = 1
	MaxSeatsPerHold = 4
)

// HoldManager places, commits and releases time-limited holds on seats.
// It is the only writer of seat state. Every mutation runs under the
// owning event's mutex, so concurrent HoldSeats calls racing on
// overlapping seat sets resolve first-successful-writer: exactly one
// succeeds per contested seat and the loser fails fast with
// ErrSeatConflict instead of blocking.
//
// Lock order: event mutex before the manager's index mutex, never the
// reverse.
type HoldManager struct {
	inv *Inventory

	mu        sync.Mutex
	holdEvent map[string]string // hold id -> event id
}

// NewHoldManager returns a manager operating on the given inventory.
func NewHoldManager(inv *Inventory) *HoldManager {
	return &HoldManager{inv: inv, holdEvent: make(map[string]string)}
}

// HoldSeats atomically claims the requested seats for a session. The
// request is all-or-nothing: if any seat is not available the whole
// call fails with ErrSeatConflict and no seat is touched. A session may
// have at most one open hold per event, and a hold covers between one
// and four distinct seats. On success every seat transitions
// available -> held, stamped with the session and expiry deadline.
func (m *HoldManager) HoldSeats(eventID, sessionID string, seatIDs []string, ttl time.Duration) (model.SeatHold, error) {
	unique := dedupe(seatIDs)
	if len(unique) < MinSeatsPerHold || len(unique) > MaxSeatsPerHold {
		return model.SeatHold{}, ErrTooManySeats
	}
	es, err := m.inv.eventState(eventID)
	if err != nil {
		return model.SeatHold{}, err
	}

	now := time.Now().UTC()
	es.mu.Lock()
	defer es.mu.Unlock()

	// Lapsed holds are released lazily here as well as by the sweep, so
	// a seat whose hold just expired can be claimed without waiting for
	// the next sweep tick.
	m.releaseExpiredLocked(es, now)

	if _, open := es.holdBySession[sessionID]; open {
		return model.SeatHold{}, ErrHoldAlreadyExists
	}
	for _, id := range unique {
		seat, ok := es.seats[id]
		if !ok {
			return model.SeatHold{}, ErrSeatNotFound
		}
		if seat.Status != model.SeatAvailable {
			return model.SeatHold{}, ErrSeatConflict
		}
	}

	hold := &model.SeatHold{
		ID:        uuid.New().String(),
		EventID:   eventID,
		SessionID: sessionID,
		SeatIDs:   unique,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	for _, id := range unique {
		seat := es.seats[id]
		seat.Status = model.SeatHeld
		seat.HeldBy = sessionID
		seat.HoldExpiresAt = hold.ExpiresAt
	}
	es.holds[hold.ID] = hold
	es.holdBySession[sessionID] = hold.ID

	m.mu.Lock()
	m.holdEvent[hold.ID] = eventID
	m.mu.Unlock()

	return copyHold(hold), nil
}

// Hold returns a copy of an open hold.
func (m *HoldManager) Hold(holdID string) (model.SeatHold, error) {
	es, ok := m.stateFor(holdID)
	if !ok {
		return model.SeatHold{}, ErrHoldNotFound
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	hold, ok := es.holds[holdID]
	if !ok {
		return model.SeatHold{}, ErrHoldNotFound
	}
	return copyHold(hold), nil
}

// HoldSummary returns a copy of an open hold together with the summed
// price of its seats, used to snapshot a booking total.
func (m *HoldManager) HoldSummary(holdID string) (model.SeatHold, uint32, error) {
	es, ok := m.stateFor(holdID)
	if !ok {
		return model.SeatHold{}, 0, ErrHoldNotFound
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	hold, ok := es.holds[holdID]
	if !ok {
		return model.SeatHold{}, 0, ErrHoldNotFound
	}
	var total uint32
	for _, id := range hold.SeatIDs {
		if seat, ok := es.seats[id]; ok {
			total += seat.PriceCents
		}
	}
	return copyHold(hold), total, nil
}

// ReleaseHold returns the hold's seats to available. It is idempotent:
// releasing an unknown, already released or already committed hold is a
// no-op. The release takes effect immediately, not at the next sweep.
func (m *HoldManager) ReleaseHold(holdID string) {
	es, ok := m.stateFor(holdID)
	if !ok {
		return
	}
	es.mu.Lock()
	hold, ok := es.holds[holdID]
	if ok {
		m.releaseLocked(es, hold)
	}
	es.mu.Unlock()
	if ok {
		m.dropIndex(holdID)
	}
}

// CommitHold transitions the hold's seats held -> sold and destroys the
// hold. Committing after the expiry deadline fails with ErrHoldExpired
// and releases the seats; an unknown hold fails with ErrHoldNotFound.
// On success the committed seat ids are returned.
func (m *HoldManager) CommitHold(holdID string) ([]string, error) {
	es, ok := m.stateFor(holdID)
	if !ok {
		return nil, ErrHoldNotFound
	}
	now := time.Now().UTC()
	es.mu.Lock()
	hold, ok := es.holds[holdID]
	if !ok {
		es.mu.Unlock()
		return nil, ErrHoldNotFound
	}
	if hold.Expired(now) {
		m.releaseLocked(es, hold)
		es.mu.Unlock()
		m.dropIndex(holdID)
		return nil, ErrHoldExpired
	}
	for _, id := range hold.SeatIDs {
		seat := es.seats[id]
		seat.Status = model.SeatSold
		seat.HeldBy = ""
		seat.HoldExpiresAt = time.Time{}
	}
	delete(es.holds, hold.ID)
	delete(es.holdBySession, hold.SessionID)
	seatIDs := append([]string(nil), hold.SeatIDs...)
	es.mu.Unlock()
	m.dropIndex(holdID)
	return seatIDs, nil
}

// ExpireSweep releases every hold whose deadline has passed and returns
// the released holds so the booking layer can expire any bookings that
// were created from them. Safe to run concurrently with request
// handlers; each event is locked independently.
func (m *HoldManager) ExpireSweep(now time.Time) []model.SeatHold {
	var released []model.SeatHold
	for _, es := range m.inv.eventStates() {
		es.mu.Lock()
		released = append(released, m.releaseExpiredLocked(es, now)...)
		es.mu.Unlock()
	}
	if len(released) > 0 {
		slog.Info("released expired seat holds", "count", len(released))
	}
	return released
}

// releaseExpiredLocked releases all lapsed holds of one event. The
// event mutex must be held.
func (m *HoldManager) releaseExpiredLocked(es *eventState, now time.Time) []model.SeatHold {
	var released []model.SeatHold
	for id, hold := range es.holds {
		if !hold.Expired(now) {
			continue
		}
		released = append(released, copyHold(hold))
		m.releaseLocked(es, hold)
		m.dropIndex(id)
	}
	return released
}

// releaseLocked returns a hold's seats to available and destroys the
// hold. The event mutex must be held. Seats already sold (the hold was
// committed) are left alone.
func (m *HoldManager) releaseLocked(es *eventState, hold *model.SeatHold) {
	for _, id := range hold.SeatIDs {
		seat, ok := es.seats[id]
		if !ok {
			continue
		}
		if seat.Status == model.SeatHeld && seat.HeldBy == hold.SessionID {
			seat.Status = model.SeatAvailable
			seat.HeldBy = ""
			seat.HoldExpiresAt = time.Time{}
		}
	}
	delete(es.holds, hold.ID)
	if cur, ok := es.holdBySession[hold.SessionID]; ok && cur == hold.ID {
		delete(es.holdBySession, hold.SessionID)
	}
}

func (m *HoldManager) stateFor(holdID string) (*eventState, bool) {
	m.mu.Lock()
	eventID, ok := m.holdEvent[holdID]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	es, err := m.inv.eventState(eventID)
	if err != nil {
		return nil, false
	}
	return es, true
}

func (m *HoldManager) dropIndex(holdID string) {
	m.mu.Lock()
	delete(m.holdEvent, holdID)
	m.mu.Unlock()
}

func copyHold(h *model.SeatHold) model.SeatHold {
	out := *h
	out.SeatIDs = append([]string(nil), h.SeatIDs...)
	return out
}

// dedupe drops duplicate and empty seat ids while keeping a stable,
// sorted order so hold contents are deterministic.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
