package app

import (
	"errors"
	"fmt"
	"time"
)

// Store backends accepted by Config.Store.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
)

// DefaultListen is the serve-mode API address when none is configured.
const DefaultListen = ":8080"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Store          string // memory | badger
	DataDir        string // badger directory
	StorePrefix    string
	CatalogPath    string // hcl manifests
	MigrationsPath string // hcl alias tables

	LogFormat        string
	LogLevel         string
	AllowRawFallback bool
	Timeout          time.Duration // per dispatched call
	QueueSize        int

	Listen          string // serve mode API address
	HealthcheckPort int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error

	switch cfg.Store {
	case "":
		cfg.Store = StoreMemory
	case StoreMemory:
	case StoreBadger:
		if cfg.DataDir == "" {
			errs = append(errs, errors.New("DataDir is required when Store is 'badger'"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid store %q: must be 'memory' or 'badger'", cfg.Store))
	}

	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat))
	}

	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel))
	}

	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.Timeout < 0 {
		errs = append(errs, errors.New("Timeout cannot be negative"))
	}
	if cfg.QueueSize < 0 {
		errs = append(errs, errors.New("QueueSize cannot be negative"))
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
