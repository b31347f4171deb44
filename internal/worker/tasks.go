// Package worker runs the background sweeps that drive time-based
// state transitions: queue promotion and idle-session reclamation,
// seat-hold expiry, and payment-window enforcement. Sweeps are asynq
// tasks fired by a scheduler, so a multi-process deployment runs each
// tick exactly once.
package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jjongkwann/ticketing/internal/service"
)

// Task type names. One periodic task per sweep.
const (
	TypeQueueSweep   = "queue:sweep"
	TypeHoldSweep    = "hold:sweep"
	TypeBookingSweep = "booking:sweep"
)

// Worker bundles the services the sweep handlers drive.
type Worker struct {
	queue    *service.QueueService
	holds    *service.HoldManager
	bookings *service.BookingService
}

// New returns a Worker operating on the given services.
func New(queue *service.QueueService, holds *service.HoldManager, bookings *service.BookingService) *Worker {
	return &Worker{queue: queue, holds: holds, bookings: bookings}
}

// HandleQueueSweep expires idle admitted sessions and promotes waiting
// ones across all events.
func (w *Worker) HandleQueueSweep(ctx context.Context, t *asynq.Task) error {
	w.queue.Sweep(time.Now().UTC())
	return nil
}

// HandleHoldSweep releases lapsed seat holds, then expires any pending
// booking that was riding on a released hold. The two steps take their
// locks sequentially, never nested, so the sweep cannot deadlock with
// request handlers.
func (w *Worker) HandleHoldSweep(ctx context.Context, t *asynq.Task) error {
	released := w.holds.ExpireSweep(time.Now().UTC())
	for _, hold := range released {
		w.bookings.ExpireForHold(ctx, hold.ID)
	}
	return nil
}

// HandleBookingSweep expires pending bookings whose payment window
// closed without a confirmation.
func (w *Worker) HandleBookingSweep(ctx context.Context, t *asynq.Task) error {
	w.bookings.ExpireSweep(ctx, time.Now().UTC())
	return nil
}
