package app

import (
	"errors"
	"time"

	"github.com/honua-io/honua/internal/validation"
)

// Config holds everything an App instance needs to run.
type Config struct {
	ConfigPath string

	Mode     validation.Mode
	FailFast bool

	LogFormat string
	LogLevel  string

	// Workers and ProbeTimeout tune the live Runtime validation phase.
	Workers      int
	ProbeTimeout time.Duration
}

// NewConfig validates a Config and fills defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return &cfg, nil
}
