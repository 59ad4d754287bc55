// Package main provides the simbench worker: the Temporal worker process
// that hosts the simulation orchestration workflows and their activities.
//
// Usage:
//
//	SIMBENCH_TEMPORAL_HOST_PORT=localhost:7233 \
//	SIMBENCH_DATABASE_URL=postgres://localhost/simbench \
//	SIMBENCH_LLM_API_KEY=sk-xxx \
//	./simbenchd -config config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/simbench/internal/config"
	"github.com/fyrsmithlabs/simbench/internal/genai"
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

	logger.Info(ctx, "simbench worker starting",
		zap.String("temporal_host", cfg.Temporal.HostPort),
		zap.String("task_queue", cfg.Temporal.TaskQueue),
	)

	tel, err := telemetry.New(ctx, &cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	gen, err := genai.NewService(genai.Config{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		APIKey:  cfg.LLM.APIKey,
	})
	if err != nil {
		return fmt.Errorf("creating generation service: %w", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()

	logger.Info(ctx, "temporal client connected", zap.String("host", cfg.Temporal.HostPort))

	st := store.NewPostgres(pool)
	acts := workflows.NewActivities(st, gen, gen, gen, logger)
	schedActs := workflows.NewScheduleActivities(c, workflows.ScheduleConfig{
		TaskQueue:          cfg.Temporal.TaskQueue,
		Interval:           cfg.Scheduler.TickInterval,
		CandidateBatchSize: cfg.Scheduler.CandidateBatchSize,
	}, logger)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	workflows.Register(w, acts, schedActs)

	logger.Info(ctx, "worker configured", zap.String("task_queue", cfg.Temporal.TaskQueue))

	workerErrors := make(chan error, 1)
	go func() {
		workerErrors <- w.Run(worker.InterruptCh())
	}()

	select {
	case err := <-workerErrors:
		if err != nil {
			return fmt.Errorf("worker error: %w", err)
		}
	case <-ctx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	logger.Info(ctx, "worker stopped gracefully")
	return nil
}
