package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/metoro-io/inventory-reservation-go/internal/catalog"
	"github.com/metoro-io/inventory-reservation-go/internal/db"
	"github.com/metoro-io/inventory-reservation-go/internal/events"
	httpapi "github.com/metoro-io/inventory-reservation-go/internal/http"
	"github.com/metoro-io/inventory-reservation-go/internal/inventory"
	"github.com/metoro-io/inventory-reservation-go/internal/sequence"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- initial stock ---
	initial := catalog.DefaultSeed()
	if cfg.DatabaseDSN != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			logger.Fatalf("db connect: %v", err)
		}

		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
				pool.Close()
				logger.Fatalf("db migrate: %v", err)
			}
		}

		initial, err = catalog.Load(ctx, pool)
		if err != nil {
			pool.Close()
			logger.Fatalf("load catalog: %v", err)
		}
		// The ledger is in-memory from here on; the pool is only needed
		// for the one-time catalog read.
		pool.Close()
		logger.Printf("catalog loaded from database: %d products", len(initial))
	} else {
		logger.Printf("using built-in catalog seed: %d products", len(initial))
	}

	ledger := inventory.NewLedger(initial)
	table := inventory.NewTable()

	// --- AMQP ---
	var sink inventory.EventSink
	if cfg.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			logger.Fatalf("amqp connect: %v", err)
		}
		defer conn.Close()

		pub, err := events.NewPublisher(conn, sequence.NewCounter(), events.PublisherOptions{})
		if err != nil {
			logger.Fatalf("create publisher: %v", err)
		}
		defer pub.Close()
		sink = pub
		logger.Printf("publishing reservation events to %s", events.EventsExchange)
	}

	coord := inventory.NewCoordinator(ledger, table, inventory.CoordinatorOptions{
		TTL:    cfg.ReservationTTL,
		Sink:   sink,
		Logger: logger,
	})

	go coord.RunSweeper(ctx, cfg.SweepInterval)

	// --- HTTP ---
	h := httpapi.NewHandler(coord)
	r := httpapi.NewRouter(h)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Printf("http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("shutdown signal: %s", sig)
	case err := <-errCh:
		logger.Printf("fatal error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = httpServer.Shutdown(shutdownCtx)
	cancel()

	logger.Printf("shutdown complete")
}

type config struct {
	HTTPAddr       string
	DatabaseDSN    string
	RunMigrations  bool
	AMQPURL        string
	ReservationTTL time.Duration
	SweepInterval  time.Duration
}

func loadConfig() config {
	return config{
		HTTPAddr:       env("HTTP_ADDR", ":8085"),
		DatabaseDSN:    env("DATABASE_DSN", ""),
		RunMigrations:  envBool("RUN_MIGRATIONS", true),
		AMQPURL:        env("AMQP_URL", ""),
		ReservationTTL: envDuration("RESERVATION_TTL", inventory.DefaultTTL),
		SweepInterval:  envDuration("SWEEP_INTERVAL", 5*time.Second),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
