package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/pinpatch/internal/blueprint"
	"github.com/specialistvlad/pinpatch/internal/ctxlog"
	"github.com/specialistvlad/pinpatch/internal/dispatch"
	"github.com/specialistvlad/pinpatch/internal/engine"
	"github.com/specialistvlad/pinpatch/internal/kv"
	"github.com/specialistvlad/pinpatch/internal/metrics"
	"github.com/specialistvlad/pinpatch/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	outW   io.Writer
	logger *slog.Logger
	config *Config

	registry *registry.Registry
	kv       kv.Store
	store    *blueprint.KVStore
	metrics  *metrics.Metrics
	engine   *engine.Engine
	queue    *dispatch.Queue

	healthServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App with its own logger, registry, store and engine. A
// failure to load definitions or open the store is a fatal startup error
// and panics; the entrypoint recovers it into an error.
func NewApp(outW io.Writer, cfg *Config) *App {
	logger := NewLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx, cancel := context.WithCancel(ctxlog.WithLogger(context.Background(), logger))
	logger.Debug("Logger configured successfully.")

	reg, err := registry.Load(ctx, registry.Options{
		CatalogPath:    cfg.CatalogPath,
		MigrationsPath: cfg.MigrationsPath,
	})
	if err != nil {
		cancel()
		panic(fmt.Errorf("failed to load definitions: %w", err))
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		cancel()
		panic(fmt.Errorf("failed to open %s store: %w", cfg.Store, err))
	}
	logger.Debug("Store opened.", "store", cfg.Store, "data_dir", cfg.DataDir)

	m := metrics.New()
	blueprints := blueprint.NewKVStore(store, cfg.StorePrefix)
	eng := engine.New(reg, blueprints, engine.Options{
		AllowRawFallback: cfg.AllowRawFallback,
		Metrics:          m,
	})

	return &App{
		ctx:      ctx,
		cancel:   cancel,
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		kv:       store,
		store:    blueprints,
		metrics:  m,
		engine:   eng,
		queue:    dispatch.New(ctx, cfg.QueueSize, cfg.Timeout),
	}
}

func openStore(cfg *Config, logger *slog.Logger) (kv.Store, error) {
	if cfg.Store == StoreBadger {
		return kv.NewBadger(kv.BadgerOptions{Dir: cfg.DataDir, Logger: logger})
	}
	return kv.NewMemory(nil), nil
}

// Context returns the application's root context, which carries its logger.
func (a *App) Context() context.Context {
	return a.ctx
}

// Engine returns the application's engine.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Registry returns the application's registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Blueprints returns the blueprint store the engine writes to.
func (a *App) Blueprints() blueprint.Store {
	return a.store
}

// Metrics returns the application's metrics.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Close stops the dispatch queue and the health check server and closes the
// store.
func (a *App) Close() error {
	a.logger.Debug("Closing application...")
	a.queue.Close()
	errs := []error{a.closeHealthcheckServer()}
	a.cancel()
	errs = append(errs, a.kv.Close())
	return errors.Join(errs...)
}
