package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjongkwann/ticketing/internal/model"
)

// newBookingFixture builds an inventory, hold manager and booking
// service with the given payment window and no persistence.
func newBookingFixture(t *testing.T, window time.Duration) (*Inventory, *HoldManager, *BookingService, model.Event) {
	t.Helper()
	inv, ev := newTestInventory(t)
	holds := NewHoldManager(inv)
	bookings := NewBookingService(holds, window, nil)
	return inv, holds, bookings, ev
}

func TestCreateBookingSnapshotsTotalAndDeadline(t *testing.T) {
	_, holds, bookings, ev := newBookingFixture(t, 10*time.Minute)

	hold, err := holds.HoldSeats(ev.ID, "sess-1", []string{"A-1", "A-2"}, time.Minute)
	require.NoError(t, err)

	b, err := bookings.CreateBooking(ev.ID, "user-1", "sess-1", hold.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, uint32(10000), b.TotalAmountCents)
	assert.Equal(t, []string{"A-1", "A-2"}, b.SeatIDs)
	assert.WithinDuration(t, time.Now().UTC().Add(10*time.Minute), b.ExpiresAt, 2*time.Second)
}

func TestCreateBookingRequiresOwnUnexpiredHold(t *testing.T) {
	_, holds, bookings, ev := newBookingFixture(t, 10*time.Minute)

	hold, err := holds.HoldSeats(ev.ID, "sess-1", []string{"A-1"}, time.Minute)
	require.NoError(t, err)

	_, err = bookings.CreateBooking(ev.ID, "user-2", "sess-2", hold.ID)
	assert.ErrorIs(t, err, ErrHoldNotFound)

	_, err = bookings.CreateBooking(ev.ID, "user-1", "sess-1", "no-such-hold")
	assert.ErrorIs(t, err, ErrHoldNotFound)

	expired, err := holds.HoldSeats(ev.ID, "sess-3", []string{"A-2"}, -time.Second)
	require.NoError(t, err)
	_, err = bookings.CreateBooking(ev.ID, "user-3", "sess-3", expired.ID)
	assert.ErrorIs(t, err, ErrHoldExpired)
}

func TestHoldBacksAtMostOneBooking(t *testing.T) {
	_, holds, bookings, ev := newBookingFixture(t, 10*time.Minute)

	hold, err := holds.HoldSeats(ev.ID, "sess-1", []string{"A-1"}, time.Minute)
	require.NoError(t, err)

	_, err = bookings.CreateBooking(ev.ID, "user-1", "sess-1", hold.ID)
	require.NoError(t, err)
	_, err = bookings.CreateBooking(ev.ID, "user-1", "sess-1", hold.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConfirmBookingCommitsSeats(t *testing.T) {
	inv, holds, bookings, ev := newBookingFixture(t, 10*time.Minute)

	hold, err := holds.HoldSeats(ev.ID, "sess-1", []string{"A-1", "A-2"}, time.Minute)
	require.NoError(t, err)
	created, err := bookings.CreateBooking(ev.ID, "user-1", "sess-1", hold.ID)
	require.NoError(t, err)

	confirmed, err := bookings.ConfirmBooking(context.Background(), created.ID, "pay-123")
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, confirmed.Status)
	assert.Equal(t, "pay-123", confirmed.PaymentRef)

	statuses := seatStatuses(t, inv, ev.ID)
	assert.Equal(t, model.SeatSold, statuses["A-1"])
	assert.Equal(t, model.SeatSold, statuses["A-2"])

	// Terminal states admit no further transitions.
	_, err = bookings.ConfirmBooking(context.Background(), created.ID, "pay-456")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConfirmAfterPaymentWindowExpiresBooking(t *testing.T) {
	inv, holds, bookings, ev := newBookingFixture(t, -time.Second)

	hold, err := holds.HoldSeats(ev.ID, "sess-1", []string{"A-1"}, time.Minute)
	require.NoError(t, err)
	created, err := bookings.CreateBooking(ev.ID, "user-1", "sess-1", hold.ID)
	require.NoError(t, err)

	_, err = bookings.ConfirmBooking(context.Background(), created.ID, "pay-123")
	assert.ErrorIs(t, err, ErrBookingExpired)

	b, err := bookings.Booking(created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingExpired, b.Status)
	assert.Equal(t, model.SeatAvailable, seatStatuses(t, inv, ev.ID)["A-1"])
}

func TestConfirmWithLapsedHoldExpiresBooking(t *testing.T) {
	inv, holds, bookings, ev := newBookingFixture(t, 10*time.Minute)

	hold, err := holds.HoldSeats(ev.ID, "sess-1", []string{"A-1"}, 10*time.Millisecond)
	require.NoError(t, err)
	created, err := bookings.CreateBooking(ev.ID, "user-1", "sess-1", hold.ID)
	require.NoError(t, err)

	// Let the sweep release the hold before payment completes.
	holds.ExpireSweep(time.Now().UTC().Add(time.Second))

	_, err = bookings.ConfirmBooking(context.Background(), created.ID, "pay-123")
	assert.ErrorIs(t, err, ErrBookingExpired)
	assert.Equal(t, model.SeatAvailable, seatStatuses(t, inv, ev.ID)["A-1"])
}

func TestCancelPendingReleasesSeats(t *testing.T) {
	inv, holds, bookings, ev := newBookingFixture(t, 10*time.Minute)

	hold, err := holds.HoldSeats(ev.ID, "sess-1", []string{"A-1"}, time.Minute)
	require.NoError(t, err)
	created, err := bookings.CreateBooking(ev.ID, "user-1", "sess-1", hold.ID)
	require.NoError(t, err)

	cancelled, err := bookings.CancelBooking(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)
	assert.Equal(t, model.SeatAvailable, seatStatuses(t, inv, ev.ID)["A-1"])

	_, err = bookings.CancelBooking(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelConfirmedKeepsSeatsSold(t *testing.T) {
	inv, holds, bookings, ev := newBookingFixture(t, 10*time.Minute)

	hold, err := holds.HoldSeats(ev.ID, "sess-1", []string{"A-1"}, time.Minute)
	require.NoError(t, err)
	created, err := bookings.CreateBooking(ev.ID, "user-1", "sess-1", hold.ID)
	require.NoError(t, err)
	_, err = bookings.ConfirmBooking(context.Background(), created.ID, "pay-123")
	require.NoError(t, err)

	cancelled, err := bookings.CancelBooking(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)
	// Refunds and seat release are an external concern.
	assert.Equal(t, model.SeatSold, seatStatuses(t, inv, ev.ID)["A-1"])
}

func TestExpireSweepExpiresOverdueBookings(t *testing.T) {
	inv, holds, bookings, ev := newBookingFixture(t, time.Minute)

	hold, err := holds.HoldSeats(ev.ID, "sess-1", []string{"A-1"}, time.Hour)
	require.NoError(t, err)
	created, err := bookings.CreateBooking(ev.ID, "user-1", "sess-1", hold.ID)
	require.NoError(t, err)

	expired := bookings.ExpireSweep(context.Background(), time.Now().UTC().Add(2*time.Minute))
	require.Len(t, expired, 1)
	assert.Equal(t, created.ID, expired[0].ID)

	b, err := bookings.Booking(created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingExpired, b.Status)
	assert.Equal(t, model.SeatAvailable, seatStatuses(t, inv, ev.ID)["A-1"])
}

func TestExpireForHoldFollowsHoldSweep(t *testing.T) {
	_, holds, bookings, ev := newBookingFixture(t, time.Hour)

	hold, err := holds.HoldSeats(ev.ID, "sess-1", []string{"A-1"}, 10*time.Millisecond)
	require.NoError(t, err)
	created, err := bookings.CreateBooking(ev.ID, "user-1", "sess-1", hold.ID)
	require.NoError(t, err)

	released := holds.ExpireSweep(time.Now().UTC().Add(time.Second))
	require.Len(t, released, 1)
	bookings.ExpireForHold(context.Background(), released[0].ID)

	b, err := bookings.Booking(created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingExpired, b.Status)

	// Unknown holds are ignored.
	bookings.ExpireForHold(context.Background(), "no-such-hold")
}
