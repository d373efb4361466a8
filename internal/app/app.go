// Package app assembles the configuration pipeline and the built-in service
// registrations into one startable unit shared by the CLI commands.
package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/honua-io/honua/internal/composer"
	"github.com/honua-io/honua/internal/ctxlog"
	"github.com/honua-io/honua/internal/loader"
	"github.com/honua-io/honua/internal/registry"
	"github.com/honua-io/honua/internal/validation"
)

// App encapsulates one loaded configuration, the discovered registry, and an
// isolated logger. Several App instances can coexist in one process; nothing
// here is a singleton.
type App struct {
	logger   *slog.Logger
	loader   *loader.Loader
	registry *registry.Registry
	mode     validation.Mode
}

// New loads and resolves the configuration at cfg.ConfigPath and discovers
// the service registrations. Discovery failures and unloadable
// configurations are returned as errors; validation findings are not errors
// here, callers read them from Result.
func New(ctx context.Context, outW io.Writer, cfg *Config, regs ...registry.ServiceRegistration) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)

	if len(regs) == 0 {
		regs = coreRegistrations()
	}
	reg, err := registry.Discover(regs...)
	if err != nil {
		// Fatal: a broken registration set means nothing may start.
		return nil, err
	}
	logger.Debug("service registrations discovered", "count", reg.Len(), "ids", reg.IDs())

	ld, err := loader.Load(ctx, cfg.ConfigPath, loader.Options{
		Mode:     cfg.Mode,
		FailFast: cfg.FailFast,
		Runtime: validation.RuntimeOptions{
			Workers:      cfg.Workers,
			ProbeTimeout: cfg.ProbeTimeout,
		},
	})
	if err != nil {
		return nil, err
	}

	return &App{logger: logger, loader: ld, registry: reg, mode: cfg.Mode}, nil
}

// Logger returns the app's isolated logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Loader returns the configuration loader facade.
func (a *App) Loader() *loader.Loader { return a.loader }

// Registry returns the discovered service registry.
func (a *App) Registry() *registry.Registry { return a.registry }

// Validate merges the synchronous validation result with, in Full mode, the
// live Runtime phase.
func (a *App) Validate(ctx context.Context) *validation.Result {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	res := validation.NewResult()
	res.Merge(a.loader.Result())
	if a.mode == validation.Full {
		res.Merge(a.loader.ValidateLive(ctx))
	}
	return res
}

// Compose wires the enabled services. Composition requires a configuration
// with no outstanding validation errors.
func (a *App) Compose(ctx context.Context, opts composer.Options) (*composer.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	return composer.Compose(ctx, a.loader.Config(), a.registry, opts)
}
