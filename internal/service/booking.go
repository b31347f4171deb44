package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jjongkwann/ticketing/internal/model"
)

// BookingStore persists bookings that reached a terminal or confirmed
// state. The in-memory state machine is authoritative; the store is a
// write-behind record for downstream systems.
type BookingStore interface {
	SaveBooking(ctx context.Context, b model.Booking) error
}

// BookingService owns the booking lifecycle:
//
//	pending -> confirmed | cancelled | expired
//
// All three right-hand states are terminal. A booking is created from
// an unexpired hold, carries a fixed payment window from creation, and
// commits or releases its hold when it leaves pending. Deadlines are
// computed and enforced server-side only.
type BookingService struct {
	holds         *HoldManager
	paymentWindow time.Duration
	store         BookingStore // may be nil when persistence is disabled

	mu       sync.RWMutex
	bookings map[string]*model.Booking
	byHold   map[string]string // open hold id -> pending booking id
}

// NewBookingService returns a state machine committing and releasing
// seats through the given hold manager. store may be nil.
func NewBookingService(holds *HoldManager, paymentWindow time.Duration, store BookingStore) *BookingService {
	return &BookingService{
		holds:         holds,
		paymentWindow: paymentWindow,
		store:         store,
		bookings:      make(map[string]*model.Booking),
		byHold:        make(map[string]string),
	}
}

// CreateBooking starts checkout for a successfully placed hold. The
// hold must exist, be unexpired and belong to the calling session. The
// total amount is snapshotted from the held seats' prices and the
// payment-window deadline is stamped from the current server time. A
// hold can back at most one booking.
func (s *BookingService) CreateBooking(eventID, userID, sessionID, holdID string) (model.Booking, error) {
	hold, total, err := s.holds.HoldSummary(holdID)
	if err != nil {
		return model.Booking{}, err
	}
	if hold.EventID != eventID || hold.SessionID != sessionID {
		return model.Booking{}, ErrHoldNotFound
	}
	now := time.Now().UTC()
	if hold.Expired(now) {
		return model.Booking{}, ErrHoldExpired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byHold[holdID]; exists {
		return model.Booking{}, ErrInvalidTransition
	}
	b := &model.Booking{
		ID:               uuid.New().String(),
		EventID:          eventID,
		UserID:           userID,
		SessionID:        sessionID,
		HoldID:           holdID,
		SeatIDs:          hold.SeatIDs,
		TotalAmountCents: total,
		Status:           model.BookingPending,
		ExpiresAt:        now.Add(s.paymentWindow),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.bookings[b.ID] = b
	s.byHold[holdID] = b.ID
	return copyBooking(b), nil
}

// Booking returns a copy of a booking.
func (s *BookingService) Booking(bookingID string) (model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	return copyBooking(b), nil
}

// Status returns a booking's current state. Used by the token rotator,
// which only issues tokens for confirmed bookings.
func (s *BookingService) Status(bookingID string) (model.BookingStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return "", ErrBookingNotFound
	}
	return b.Status, nil
}

// ConfirmBooking records a successful payment and commits the hold so
// the seats become sold. Confirming after the payment window closed
// fails with ErrBookingExpired even if the payment nominally succeeded;
// the caller must refund out-of-band. A booking whose hold lapsed in
// the meantime is treated the same way.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, paymentRef string) (model.Booking, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	switch b.Status {
	case model.BookingPending:
	case model.BookingExpired:
		return model.Booking{}, ErrBookingExpired
	default:
		return model.Booking{}, ErrInvalidTransition
	}
	if !now.Before(b.ExpiresAt) {
		s.expireLocked(ctx, b, now)
		return model.Booking{}, ErrBookingExpired
	}
	if _, err := s.holds.CommitHold(b.HoldID); err != nil {
		// The hold lapsed (or its sweep won the race) before payment
		// completed; the booking cannot be honored.
		if errors.Is(err, ErrHoldExpired) || errors.Is(err, ErrHoldNotFound) {
			s.expireLocked(ctx, b, now)
			return model.Booking{}, ErrBookingExpired
		}
		return model.Booking{}, err
	}
	delete(s.byHold, b.HoldID)
	b.Status = model.BookingConfirmed
	b.PaymentRef = paymentRef
	b.UpdatedAt = now
	s.persistLocked(ctx, b)
	return copyBooking(b), nil
}

// CancelBooking is the user-initiated cancellation. A pending booking
// releases its seats immediately; a confirmed booking only flips state
// (the refund policy belongs to an external collaborator and the seats
// stay sold until it decides otherwise). Cancelling a terminal booking
// fails with ErrInvalidTransition.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) (model.Booking, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	switch b.Status {
	case model.BookingPending:
		delete(s.byHold, b.HoldID)
		b.Status = model.BookingCancelled
		b.UpdatedAt = now
		s.holds.ReleaseHold(b.HoldID)
	case model.BookingConfirmed:
		b.Status = model.BookingCancelled
		b.UpdatedAt = now
	default:
		return model.Booking{}, ErrInvalidTransition
	}
	s.persistLocked(ctx, b)
	return copyBooking(b), nil
}

// ExpireSweep drives every pending booking past its payment deadline to
// expired and releases its hold. Sweep transitions are silent: no
// caller sees an error, the new state simply shows up on the next read.
func (s *BookingService) ExpireSweep(ctx context.Context, now time.Time) []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []model.Booking
	for _, b := range s.bookings {
		if b.Status == model.BookingPending && !now.Before(b.ExpiresAt) {
			s.expireLocked(ctx, b, now)
			expired = append(expired, copyBooking(b))
		}
	}
	if len(expired) > 0 {
		slog.Info("expired overdue bookings", "count", len(expired))
	}
	return expired
}

// ExpireForHold expires the pending booking created from a hold the
// expiry sweep just released. No-op when the hold backs no booking or
// the booking already left pending.
func (s *BookingService) ExpireForHold(ctx context.Context, holdID string) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byHold[holdID]
	if !ok {
		return
	}
	if b := s.bookings[id]; b != nil && b.Status == model.BookingPending {
		s.expireLocked(ctx, b, now)
	}
}

// expireLocked finalizes a pending booking as expired. The service
// mutex must be held.
func (s *BookingService) expireLocked(ctx context.Context, b *model.Booking, now time.Time) {
	delete(s.byHold, b.HoldID)
	b.Status = model.BookingExpired
	b.UpdatedAt = now
	s.holds.ReleaseHold(b.HoldID)
	s.persistLocked(ctx, b)
}

// persistLocked writes the booking through to the store. Persistence is
// write-behind bookkeeping, so failures are logged rather than turned
// into request errors.
func (s *BookingService) persistLocked(ctx context.Context, b *model.Booking) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveBooking(ctx, copyBooking(b)); err != nil {
		slog.Error("persist booking failed", "booking_id", b.ID, "status", string(b.Status), "error", err)
	}
}

func copyBooking(b *model.Booking) model.Booking {
	out := *b
	out.SeatIDs = append([]string(nil), b.SeatIDs...)
	return out
}
