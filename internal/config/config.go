package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Config holds the settings shared by all the data-prep tools, populated
// from environment variables. Per-run options (input files, periods, output
// resolutions) are command-line flags on the individual tools.
type Config struct {
	CDOBin          string
	WorkDir         string
	LogLevel        string
	LogFormat       string
	MetricsAddr     string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CDOBin:          envOrDefault("CDO_BIN", "cdo"),
		WorkDir:         envOrDefault("WORK_DIR", os.TempDir()),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		ShutdownTimeout: shutdownTimeout,
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: must be json or text", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: must be debug, info, warn, or error", cfg.LogLevel)
	}

	if info, err := os.Stat(cfg.WorkDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("WORK_DIR %q is not a directory", cfg.WorkDir)
	}

	return cfg, nil
}

func parseShutdownTimeout() (time.Duration, error) {
	s := envOrDefault("SHUTDOWN_TIMEOUT", "5s")
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
