// Package main provides the simbench API server: the HTTP surface that
// triggers simulation run/cancel workflows and the conversation-end hook.
//
// Usage:
//
//	SIMBENCH_TEMPORAL_HOST_PORT=localhost:7233 \
//	SIMBENCH_DATABASE_URL=postgres://localhost/simbench \
//	./simbench-api -config config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/simbench/internal/config"
	simbenchhttp "github.com/fyrsmithlabs/simbench/internal/http"
	"github.com/fyrsmithlabs/simbench/internal/logging"
	"github.com/fyrsmithlabs/simbench/internal/store"
	"github.com/fyrsmithlabs/simbench/internal/telemetry"
	"github.com/fyrsmithlabs/simbench/internal/workflows"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewLogger(logging.NewDefaultConfig())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	logger.Info(ctx, "simbench api starting",
		zap.String("host", cfg.HTTP.Host),
		zap.Int("port", cfg.HTTP.Port),
	)

	tel, err := telemetry.New(ctx, &cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		telCtx, telCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer telCancel()
		_ = tel.Shutdown(telCtx)
	}()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()

	starter := workflows.NewStarter(c, cfg.Temporal.TaskQueue)
	st := store.NewPostgres(pool)

	server, err := simbenchhttp.NewServer(starter, st, logger, &simbenchhttp.Config{
		Host: cfg.HTTP.Host,
		Port: cfg.HTTP.Port,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	logger.Info(ctx, "api stopped gracefully")
	return nil
}
