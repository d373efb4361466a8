// Package loader is the single facade over the configuration pipeline:
// tokenize, parse, resolve, and optionally validate. It owns the resulting
// ResolvedConfig for the lifetime of the caller that loaded it; multiple
// independent loaders can coexist in one process.
//
// The loader never exits the process. Lex, parse and resolution failures come
// back as typed errors; validation findings come back as a Result the caller
// inspects to decide exit behavior.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/honua-io/honua/internal/config"
	"github.com/honua-io/honua/internal/ctxlog"
	"github.com/honua-io/honua/internal/parser"
	"github.com/honua-io/honua/internal/resolver"
	"github.com/honua-io/honua/internal/validation"
)

// Options control how much of the pipeline a Load runs.
type Options struct {
	// Mode selects the validation phases run synchronously during Load.
	// The Runtime phase is never run here; use ValidateLive.
	Mode validation.Mode

	// FailFast propagates to the validation orchestrator.
	FailFast bool

	// SkipValidation loads and resolves only.
	SkipValidation bool

	// Env overrides the process environment snapshot; nil means snapshot
	// os.Environ once at load time.
	Env map[string]string

	// Runtime tunes ValidateLive.
	Runtime validation.RuntimeOptions
}

// Loader holds one loaded configuration and its validation state.
type Loader struct {
	cfg    *config.ResolvedConfig
	result *validation.Result
	opts   Options
	source string
}

// ResolutionErrors wraps the batch of resolution failures from one load so
// callers can report them all while still treating the load as a single
// failed operation.
type ResolutionErrors struct {
	Errors []*resolver.ResolutionError
}

// Error implements the error interface.
func (e *ResolutionErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%s (and %d more resolution errors)", e.Errors[0].Error(), len(e.Errors)-1)
}

// Load reads and compiles the configuration file at path. Files ending in
// .json are decoded directly into the ResolvedConfig shape; everything else
// goes through the full lex/parse/resolve pipeline.
func Load(ctx context.Context, path string, opts Options) (*Loader, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return loadJSON(ctx, src, path, opts)
	}
	return LoadSource(ctx, src, path, opts)
}

// LoadSource compiles configuration source text. filename is used only for
// positions in error messages.
func LoadSource(ctx context.Context, src []byte, filename string, opts Options) (*Loader, error) {
	logger := ctxlog.FromContext(ctx)

	doc, err := parser.Parse(src, filename)
	if err != nil {
		// A document that does not parse is never partially used.
		return nil, err
	}
	logger.Debug("configuration parsed", "file", filename, "blocks", len(doc.Blocks))

	env := opts.Env
	if env == nil {
		env = envSnapshot()
	}
	cfg, resErrs := resolver.Resolve(doc, env)
	if len(resErrs) > 0 {
		return nil, &ResolutionErrors{Errors: resErrs}
	}
	logger.Debug("configuration resolved",
		"data_sources", len(cfg.DataSources),
		"services", len(cfg.Services),
		"layers", len(cfg.Layers))

	return finishLoad(ctx, cfg, filename, opts), nil
}

func finishLoad(ctx context.Context, cfg *config.ResolvedConfig, source string, opts Options) *Loader {
	l := &Loader{cfg: cfg, opts: opts, source: source}
	if opts.SkipValidation {
		l.result = validation.NewResult()
		return l
	}
	mode := opts.Mode
	if mode == validation.Full {
		// Runtime stays out of the synchronous path; ValidateLive runs it.
		mode = validation.Default
	}
	l.result = validation.Run(ctx, cfg, validation.Options{Mode: mode, FailFast: opts.FailFast})
	return l
}

// Config returns the loaded, immutable configuration.
func (l *Loader) Config() *config.ResolvedConfig {
	return l.cfg
}

// Result returns the merged result of the synchronous validation phases.
func (l *Loader) Result() *validation.Result {
	return l.result
}

// Source returns the path or name the configuration was loaded from.
func (l *Loader) Source() string {
	return l.source
}

// ValidateLive runs the Runtime phase synchronously, honoring ctx for
// cancellation. It returns a best-effort partial result even when sources
// are unreachable.
func (l *Loader) ValidateLive(ctx context.Context) *validation.Result {
	return validation.RunRuntime(ctx, l.cfg, l.opts.Runtime)
}

// ValidateLiveAsync starts the Runtime phase without blocking the caller.
// The channel delivers exactly one result and is then closed.
func (l *Loader) ValidateLiveAsync(ctx context.Context) <-chan *validation.Result {
	ch := make(chan *validation.Result, 1)
	go func() {
		defer close(ch)
		ch <- l.ValidateLive(ctx)
	}()
	return ch
}

// envSnapshot reads the process environment exactly once per load. There is
// no live reload on environment change.
func envSnapshot() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// IsConfigError reports whether err is one of the typed configuration
// failures (lex, parse or resolution), as opposed to an I/O problem.
func IsConfigError(err error) bool {
	var lexErr *parser.ParseError
	var resErrs *ResolutionErrors
	if errors.As(err, &lexErr) || errors.As(err, &resErrs) {
		return true
	}
	return isLexError(err)
}
