package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// defaultsYAML holds hardcoded defaults, the lowest-precedence layer.
const defaultsYAML = `
temporal:
  host_port: "localhost:7233"
  namespace: "default"
  task_queue: "main"
database:
  url: ""
llm:
  base_url: "https://api.openai.com/v1"
  model: "gpt-4o-mini"
  api_key: ""
scheduler:
  tick_interval: "1m"
  candidate_batch_size: 10
http:
  host: "localhost"
  port: 8080
telemetry:
  enabled: false
  endpoint: "localhost:4317"
  service_name: "simbench"
  service_version: "0.1.0"
  insecure: true
  export_interval: "15s"
`

// Load loads configuration in precedence order (highest wins):
//
//  1. Environment variables (SIMBENCH_TEMPORAL_HOST_PORT, ...)
//  2. YAML config file, if configPath is non-empty
//  3. Hardcoded defaults
//
// Environment variables are prefixed SIMBENCH_ and use underscores; the
// first underscore after the prefix separates the section from the key:
//
//	SIMBENCH_TEMPORAL_HOST_PORT  -> temporal.host_port
//	SIMBENCH_DATABASE_URL        -> database.url
//	SIMBENCH_LLM_API_KEY         -> llm.api_key
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaultsYAML)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("SIMBENCH_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// sections are the known top-level config groups, used to split env var
// names into section.key paths.
var sections = []string{"temporal", "database", "llm", "scheduler", "http", "telemetry"}

func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "SIMBENCH_"))
	for _, section := range sections {
		if strings.HasPrefix(s, section+"_") {
			return section + "." + strings.TrimPrefix(s, section+"_")
		}
	}
	return s
}
