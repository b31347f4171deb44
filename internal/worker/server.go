package worker

import (
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Intervals tunes how often each sweep fires.
type Intervals struct {
	QueueSweep   time.Duration
	HoldSweep    time.Duration
	BookingSweep time.Duration
}

// Run starts the asynq server and the scheduler that feeds it, and
// blocks until the server stops. Each sweep is registered as an
// "@every" periodic task; the scheduler deduplicates across processes
// through Redis, so sweeps run once per tick no matter how many
// replicas are up.
func (w *Worker) Run(redisAddr string, iv Intervals) error {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			"default": 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeQueueSweep, w.HandleQueueSweep)
	mux.HandleFunc(TypeHoldSweep, w.HandleHoldSweep)
	mux.HandleFunc(TypeBookingSweep, w.HandleBookingSweep)

	scheduler := asynq.NewScheduler(redisOpt, nil)
	register := func(every time.Duration, taskType string) {
		if every <= 0 {
			every = time.Second
		}
		if _, err := scheduler.Register("@every "+every.String(), asynq.NewTask(taskType, nil)); err != nil {
			slog.Error("register periodic task failed", "task", taskType, "error", err)
		}
	}
	register(iv.QueueSweep, TypeQueueSweep)
	register(iv.HoldSweep, TypeHoldSweep)
	register(iv.BookingSweep, TypeBookingSweep)

	go func() {
		if err := scheduler.Run(); err != nil {
			slog.Error("sweep scheduler stopped", "error", err)
		}
	}()

	return srv.Run(mux)
}
