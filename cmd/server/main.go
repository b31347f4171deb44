package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/jjongkwann/ticketing/internal/config"
	"github.com/jjongkwann/ticketing/internal/database"
	"github.com/jjongkwann/ticketing/internal/events"
	"github.com/jjongkwann/ticketing/internal/handler"
	"github.com/jjongkwann/ticketing/internal/repository"
	"github.com/jjongkwann/ticketing/internal/router"
	"github.com/jjongkwann/ticketing/internal/service"
	"github.com/jjongkwann/ticketing/internal/worker"
)

func main() {
	// .env is a development convenience; a missing file is fine.
	_ = godotenv.Load()
	cfg := config.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	eventRepo := repository.NewEventRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	// Load the on-sale catalog into memory. Seat and queue state is
	// owned by this process from here on; the database only sees the
	// catalog reads and write-behind booking records.
	inv := service.NewInventory()
	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	onSale, err := eventRepo.ListOnSale(loadCtx)
	if err != nil {
		cancel()
		log.Fatalf("load event catalog failed: %v", err)
	}
	for _, ev := range onSale {
		seats, err := eventRepo.SeatsByEvent(loadCtx, ev.ID)
		if err != nil {
			cancel()
			log.Fatalf("load seats for event %s failed: %v", ev.ID, err)
		}
		inv.LoadEvent(ev, seats)
	}
	cancel()
	slog.Info("event catalog loaded", "events", len(onSale))

	queueSvc := service.NewQueueService(service.QueueConfig{
		PoolCapacity:   cfg.PoolCapacity,
		AdmitPerSecond: cfg.AdmitPerSecond,
		ActiveTTL:      cfg.ActiveTTL,
		MaxWaiting:     cfg.QueueMaxWait,
	})
	holdMgr := service.NewHoldManager(inv)
	bookingSvc := service.NewBookingService(holdMgr, cfg.PaymentWindow, bookingRepo)
	rotator := service.NewTokenRotator(cfg.TicketSecret, cfg.TicketRotation, bookingSvc)

	rdb := config.NewRedisClient()
	if rdb == nil {
		slog.Warn("redis unavailable, rate limiting, caching and sweep scheduling degraded")
	}

	// Background sweeps. When Redis is down the asynq worker cannot
	// run, so fall back to in-process tickers rather than letting holds
	// and queues pile up forever.
	sweeps := worker.New(queueSvc, holdMgr, bookingSvc)
	if rdb != nil {
		go func() {
			if err := sweeps.Run(config.RedisAddr(), worker.Intervals{
				QueueSweep:   cfg.PromoteSweepEvery,
				HoldSweep:    cfg.HoldSweepEvery,
				BookingSweep: cfg.BookingSweepEvery,
			}); err != nil {
				slog.Error("sweep worker stopped", "error", err)
			}
		}()
	} else {
		go runLocalSweeps(sweeps, cfg)
	}

	// Broker consumer appending confirmations to logs/booking.log.
	go func() {
		if err := events.StartBookingConsumer(); err != nil {
			slog.Error("booking consumer stopped", "error", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORS())

	bookingHandler := &handler.BookingHandler{
		Queue:     queueSvc,
		Holds:     holdMgr,
		Bookings:  bookingSvc,
		Inventory: inv,
		HoldTTL:   cfg.HoldTTL,
	}
	router.Register(e, router.Handlers{
		Events:   &handler.EventHandler{Inventory: inv},
		Queue:    &handler.QueueHandler{Queue: queueSvc, Inventory: inv},
		Bookings: bookingHandler,
		Tickets: &handler.TicketHandler{
			Bookings:  bookingSvc,
			Inventory: inv,
			Rotator:   rotator,
			Owned:     bookingHandler,
		},
	}, &cfg, rdb)

	addr := ":" + cfg.Port
	go func() {
		slog.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}

// runLocalSweeps drives the sweeps with plain tickers when no Redis is
// available for the asynq scheduler. Single-process only.
func runLocalSweeps(w *worker.Worker, cfg config.Config) {
	every := func(d time.Duration) *time.Ticker {
		if d <= 0 {
			d = time.Second
		}
		return time.NewTicker(d)
	}
	queueTick := every(cfg.PromoteSweepEvery)
	holdTick := every(cfg.HoldSweepEvery)
	bookingTick := every(cfg.BookingSweepEvery)
	defer queueTick.Stop()
	defer holdTick.Stop()
	defer bookingTick.Stop()

	ctx := context.Background()
	for {
		select {
		case <-queueTick.C:
			_ = w.HandleQueueSweep(ctx, nil)
		case <-holdTick.C:
			_ = w.HandleHoldSweep(ctx, nil)
		case <-bookingTick.C:
			_ = w.HandleBookingSweep(ctx, nil)
		}
	}
}
