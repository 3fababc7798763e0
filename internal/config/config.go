// Package config loads the risk matcher's runtime settings. Values come from
// built-in defaults, then an optional YAML file named by RISK_CONFIG_FILE,
// then individual environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting cmd/risk-matcher needs.
type Config struct {
	LogLevel      string `yaml:"log_level"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
	GRPCPort      string `yaml:"grpc_port"`

	// RunIntervalS is the pause between scheduled runs. Zero disables the schedule.
	RunIntervalS int `yaml:"run_interval_s"`

	// RunTimeoutS bounds the store calls of a single run.
	RunTimeoutS int `yaml:"run_timeout_s"`

	// RunOnce performs a single run and exits.
	RunOnce bool `yaml:"run_once"`

	// EnsureSchema creates missing tables at startup.
	EnsureSchema bool `yaml:"ensure_schema"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:     "info",
		GRPCPort:     "9090",
		RunIntervalS: 900,
		RunTimeoutS:  60,
	}
}

// RunInterval returns RunIntervalS as a duration.
func (c Config) RunInterval() time.Duration {
	return time.Duration(c.RunIntervalS) * time.Second
}

// RunTimeout returns RunTimeoutS as a duration.
func (c Config) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutS) * time.Second
}

// Load builds the configuration from defaults, the optional YAML file and
// the environment, then validates it.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("RISK_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = envOrDefault("RISK_LOG_LEVEL", c.LogLevel)
	c.PostgresDSN = envOrDefault("POSTGRES_DSN", c.PostgresDSN)
	c.ClickHouseDSN = envOrDefault("CLICKHOUSE_DSN", c.ClickHouseDSN)
	c.GRPCPort = envOrDefault("RISK_GRPC_PORT", c.GRPCPort)
	c.RunIntervalS = envOrDefaultInt("RISK_RUN_INTERVAL_S", c.RunIntervalS)
	c.RunTimeoutS = envOrDefaultInt("RISK_RUN_TIMEOUT_S", c.RunTimeoutS)
	c.RunOnce = envOrDefaultBool("RISK_RUN_ONCE", c.RunOnce)
	c.EnsureSchema = envOrDefaultBool("RISK_ENSURE_SCHEMA", c.EnsureSchema)
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.PostgresDSN == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is required"))
	}
	if c.RunTimeoutS <= 0 {
		errs = append(errs, fmt.Errorf("run timeout must be positive, got %d", c.RunTimeoutS))
	}
	if c.RunIntervalS < 0 {
		errs = append(errs, fmt.Errorf("run interval must not be negative, got %d", c.RunIntervalS))
	}
	if !c.RunOnce && c.RunIntervalS == 0 {
		errs = append(errs, errors.New("run interval is required unless run_once is set"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envOrDefaultBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
