// Package config loads application configuration from environment
// variables. Required values halt startup when missing; tunables fall
// back to conventional defaults so a bare environment still boots.
package config

import (
	"log"
	"os"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Durations are parsed with
// time.ParseDuration ("10m", "600s"); every deadline derived from them
// is computed and enforced server-side.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	SessionSecret string // secret used to sign session cookies
	TicketSecret  string // secret used to derive rotating entry tokens

	PoolCapacity   int           // max concurrently admitted sessions per event
	AdmitPerSecond float64       // promotion-rate estimate for wait hints
	ActiveTTL      time.Duration // inactivity TTL for admitted sessions
	QueueMaxWait   int           // hard cap on the waiting line; 0 disables

	HoldTTL        time.Duration // seat-hold lifetime
	PaymentWindow  time.Duration // pending-booking confirmation window
	TicketRotation time.Duration // entry-token rotation interval

	PromoteSweepEvery time.Duration // queue promotion sweep period
	HoldSweepEvery    time.Duration // seat-hold expiry sweep period
	BookingSweepEvery time.Duration // booking expiry sweep period
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		SessionSecret: must("SESSION_SECRET"),
		TicketSecret:  must("TICKET_SECRET"),

		PoolCapacity:   envInt("QUEUE_POOL_CAPACITY", 10),
		AdmitPerSecond: envFloat("QUEUE_ADMIT_PER_SECOND", 2),
		ActiveTTL:      envDur("QUEUE_ACTIVE_TTL", 15*time.Minute),
		QueueMaxWait:   envInt("QUEUE_MAX_WAITING", 0),

		HoldTTL:        envDur("SEAT_HOLD_TTL", 10*time.Minute),
		PaymentWindow:  envDur("BOOKING_PAYMENT_WINDOW", 10*time.Minute),
		TicketRotation: envDur("TICKET_ROTATION_INTERVAL", time.Minute),

		PromoteSweepEvery: envDur("QUEUE_SWEEP_INTERVAL", time.Second),
		HoldSweepEvery:    envDur("HOLD_SWEEP_INTERVAL", time.Second),
		BookingSweepEvery: envDur("BOOKING_SWEEP_INTERVAL", 5*time.Second),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
