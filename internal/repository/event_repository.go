package repository

import (
	"context"
	"database/sql"

	"github.com/jjongkwann/ticketing/internal/model"
)

// EventRepo reads the event catalog. Timestamps are stored in UTC;
// callers must compare them in UTC as well.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the provided database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// ListOnSale returns every event whose end time lies in the future,
// with its sections attached. Used at startup to decide which events
// this coordinator owns.
func (r *EventRepo) ListOnSale(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT id, title, venue, starts_at, ends_at, created_at
	           FROM events
	           WHERE ends_at > UTC_TIMESTAMP()
	           ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []model.Event
	for rows.Next() {
		var ev model.Event
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Venue, &ev.StartsAt, &ev.EndsAt, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range events {
		sections, err := r.sectionsByEvent(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
		events[i].Sections = sections
	}
	return events, nil
}

// GetByID returns one event with its sections, or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, eventID string) (model.Event, error) {
	const q = `SELECT id, title, venue, starts_at, ends_at, created_at
	           FROM events WHERE id = ?`
	var ev model.Event
	err := r.db.QueryRowContext(ctx, q, eventID).
		Scan(&ev.ID, &ev.Title, &ev.Venue, &ev.StartsAt, &ev.EndsAt, &ev.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Event{}, ErrEventNotFound
	}
	if err != nil {
		return model.Event{}, err
	}
	ev.Sections, err = r.sectionsByEvent(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

// SeatsByEvent returns the seat layout of an event in section/row
// order. Seat status is not read from the database: while this server
// owns the event, availability lives in memory only.
func (r *EventRepo) SeatsByEvent(ctx context.Context, eventID string) ([]model.Seat, error) {
	const q = `SELECT id, section_id, row_label, number, price_cents
	           FROM seats
	           WHERE event_id = ?
	           ORDER BY section_id, row_label, number`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		seat := model.Seat{EventID: eventID}
		if err := rows.Scan(&seat.ID, &seat.SectionID, &seat.Row, &seat.Number, &seat.PriceCents); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

func (r *EventRepo) sectionsByEvent(ctx context.Context, eventID string) ([]model.Section, error) {
	const q = `SELECT id, event_id, name, price_cents, total_seats
	           FROM sections WHERE event_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sections []model.Section
	for rows.Next() {
		var sec model.Section
		if err := rows.Scan(&sec.ID, &sec.EventID, &sec.Name, &sec.PriceCents, &sec.TotalSeats); err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}
