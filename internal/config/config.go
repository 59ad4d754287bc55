// Package config provides configuration loading for simbench.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/simbench/internal/telemetry"
)

// Config is the root configuration for both the worker and the API server.
type Config struct {
	Temporal  TemporalConfig   `koanf:"temporal"`
	Database  DatabaseConfig   `koanf:"database"`
	LLM       LLMConfig        `koanf:"llm"`
	Scheduler SchedulerConfig  `koanf:"scheduler"`
	HTTP      HTTPConfig       `koanf:"http"`
	Telemetry telemetry.Config `koanf:"telemetry"`
}

// TemporalConfig configures the durable task substrate connection.
type TemporalConfig struct {
	HostPort  string `koanf:"host_port"`
	Namespace string `koanf:"namespace"`
	TaskQueue string `koanf:"task_queue"`
}

// DatabaseConfig configures the storage collaborator.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// LLMConfig configures the generation collaborators.
type LLMConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  string `koanf:"api_key"`
}

// SchedulerConfig holds the tick cadence and burst bound for the recurring
// assignment jobs. The defaults match long-standing production behavior;
// change them only with evidence.
type SchedulerConfig struct {
	TickInterval       time.Duration `koanf:"tick_interval"`
	CandidateBatchSize int           `koanf:"candidate_batch_size"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Validate checks for values the process cannot run with.
func (c *Config) Validate() error {
	if c.Temporal.HostPort == "" {
		return fmt.Errorf("temporal.host_port is required")
	}
	if c.Temporal.TaskQueue == "" {
		return fmt.Errorf("temporal.task_queue is required")
	}
	if c.Scheduler.TickInterval <= 0 {
		return fmt.Errorf("scheduler.tick_interval must be positive")
	}
	if c.Scheduler.CandidateBatchSize < 1 {
		return fmt.Errorf("scheduler.candidate_batch_size must be at least 1")
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}
