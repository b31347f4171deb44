package repository

import (
	"context"
	"database/sql"

	"github.com/jjongkwann/ticketing/internal/model"
)

// BookingRepo persists booking records behind the in-memory state
// machine. A booking row is upserted on every transition that should
// survive a restart (confirmed, cancelled, expired); its seats are
// written once alongside the first upsert.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the provided
// database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// SaveBooking upserts a booking and its seat rows in one transaction.
// Timestamps are written in UTC.
func (r *BookingRepo) SaveBooking(ctx context.Context, b model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const upsert = `INSERT INTO bookings
	        (id, event_id, user_id, session_id, status, total_amount_cents, payment_ref, expires_at, created_at, updated_at)
	        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	        ON DUPLICATE KEY UPDATE
	        status = VALUES(status), payment_ref = VALUES(payment_ref), updated_at = VALUES(updated_at)`
	if _, err = tx.ExecContext(ctx, upsert,
		b.ID, b.EventID, b.UserID, b.SessionID, string(b.Status), b.TotalAmountCents,
		nullable(b.PaymentRef), b.ExpiresAt.UTC(), b.CreatedAt.UTC(), b.UpdatedAt.UTC(),
	); err != nil {
		return err
	}

	for _, seatID := range b.SeatIDs {
		const seatRow = `INSERT IGNORE INTO booking_seats (booking_id, event_id, seat_id)
		                 VALUES (?, ?, ?)`
		if _, err = tx.ExecContext(ctx, seatRow, b.ID, b.EventID, seatID); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// nullable maps an empty string to SQL NULL so unset payment refs do
// not masquerade as empty ones.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
