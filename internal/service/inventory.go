package service

import (
	"sync"
	"time"

	"github.com/jjongkwann/ticketing/internal/model"
)

// Inventory holds the authoritative seat state for every event this
// server coordinates. Each event carries its own mutex: that mutex is
// the serialization boundary for all hold/commit/release mutations, so
// two racing holds on overlapping seat sets always see a linear,
// mutually exclusive outcome. The registry itself is guarded by a
// read-write mutex and is only written when events are loaded.
//
// Seats are mutated exclusively through the HoldManager; read paths
// return copies so callers never observe a partially updated seat.
type Inventory struct {
	mu     sync.RWMutex
	events map[string]*eventState
}

// eventState bundles everything that must change atomically for one
// event: the seats and the open holds claiming them. All fields except
// the mutex are accessed only with mu held.
type eventState struct {
	mu            sync.Mutex
	event         model.Event
	seats         map[string]*model.Seat
	seatOrder     []string                   // load order, for stable listings
	holds         map[string]*model.SeatHold // open holds by hold id
	holdBySession map[string]string          // session id -> open hold id
}

// SectionAvailability reports per-section seat counts for an event.
// At any instant available+held+sold equals the section's total.
type SectionAvailability struct {
	Section   model.Section `json:"section"`
	Available int           `json:"available"`
	Held      int           `json:"held"`
	Sold      int           `json:"sold"`
}

// NewInventory returns an empty inventory. Events are added with
// LoadEvent, typically from the catalog database at startup.
func NewInventory() *Inventory {
	return &Inventory{events: make(map[string]*eventState)}
}

// LoadEvent registers an event and its seats. Seat state resets to
// available; loading replaces any previous state for the same event id,
// so it must only be called before the event goes on sale.
func (inv *Inventory) LoadEvent(ev model.Event, seats []model.Seat) {
	es := &eventState{
		event:         ev,
		seats:         make(map[string]*model.Seat, len(seats)),
		seatOrder:     make([]string, 0, len(seats)),
		holds:         make(map[string]*model.SeatHold),
		holdBySession: make(map[string]string),
	}
	for i := range seats {
		s := seats[i]
		s.EventID = ev.ID
		s.Status = model.SeatAvailable
		s.HeldBy = ""
		s.HoldExpiresAt = time.Time{}
		es.seats[s.ID] = &s
		es.seatOrder = append(es.seatOrder, s.ID)
	}
	inv.mu.Lock()
	inv.events[ev.ID] = es
	inv.mu.Unlock()
}

// eventState returns the state holder for an event id.
func (inv *Inventory) eventState(eventID string) (*eventState, error) {
	inv.mu.RLock()
	es, ok := inv.events[eventID]
	inv.mu.RUnlock()
	if !ok {
		return nil, ErrEventNotFound
	}
	return es, nil
}

// eventStates snapshots the registered states, for sweeps.
func (inv *Inventory) eventStates() []*eventState {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make([]*eventState, 0, len(inv.events))
	for _, es := range inv.events {
		out = append(out, es)
	}
	return out
}

// Event returns a copy of the event metadata.
func (inv *Inventory) Event(eventID string) (model.Event, error) {
	es, err := inv.eventState(eventID)
	if err != nil {
		return model.Event{}, err
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.event, nil
}

// Events lists every loaded event.
func (inv *Inventory) Events() []model.Event {
	states := inv.eventStates()
	out := make([]model.Event, 0, len(states))
	for _, es := range states {
		es.mu.Lock()
		out = append(out, es.event)
		es.mu.Unlock()
	}
	return out
}

// Seats returns a consistent snapshot of every seat of an event, in
// load order.
func (inv *Inventory) Seats(eventID string) ([]model.Seat, error) {
	es, err := inv.eventState(eventID)
	if err != nil {
		return nil, err
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	out := make([]model.Seat, 0, len(es.seatOrder))
	for _, id := range es.seatOrder {
		out = append(out, *es.seats[id])
	}
	return out, nil
}

// SeatDetails returns copies of the named seats of an event. Unknown
// ids yield ErrSeatNotFound.
func (inv *Inventory) SeatDetails(eventID string, seatIDs []string) ([]model.Seat, error) {
	es, err := inv.eventState(eventID)
	if err != nil {
		return nil, err
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	out := make([]model.Seat, 0, len(seatIDs))
	for _, id := range seatIDs {
		seat, ok := es.seats[id]
		if !ok {
			return nil, ErrSeatNotFound
		}
		out = append(out, *seat)
	}
	return out, nil
}

// Availability reports per-section counts for an event.
func (inv *Inventory) Availability(eventID string) ([]SectionAvailability, error) {
	es, err := inv.eventState(eventID)
	if err != nil {
		return nil, err
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	bySection := make(map[string]*SectionAvailability, len(es.event.Sections))
	out := make([]SectionAvailability, len(es.event.Sections))
	for i, sec := range es.event.Sections {
		out[i] = SectionAvailability{Section: sec}
		bySection[sec.ID] = &out[i]
	}
	for _, seat := range es.seats {
		sa, ok := bySection[seat.SectionID]
		if !ok {
			continue
		}
		switch seat.Status {
		case model.SeatAvailable:
			sa.Available++
		case model.SeatHeld:
			sa.Held++
		case model.SeatSold:
			sa.Sold++
		}
	}
	return out, nil
}
