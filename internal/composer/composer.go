// Package composer wires validated, enabled services into a running
// application in deterministic priority order.
package composer

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/honua-io/honua/internal/config"
	"github.com/honua-io/honua/internal/container"
	"github.com/honua-io/honua/internal/ctxlog"
	"github.com/honua-io/honua/internal/registry"
	"github.com/honua-io/honua/internal/validation"
)

// Options control the failure policy of a composition run.
type Options struct {
	// ContinueOnError switches to best-effort mode: a failing service is
	// skipped and reported while the others still compose. The default is
	// fail-fast, which callers must opt out of explicitly.
	ContinueOnError bool
}

// CompositionError reports which service failed and at which stage.
type CompositionError struct {
	ServiceID string
	Stage     string
	Err       error
}

// Error implements the error interface.
func (e *CompositionError) Error() string {
	return fmt.Sprintf("composition of service %q failed during %s: %v", e.ServiceID, e.Stage, e.Err)
}

// Unwrap exposes the underlying error.
func (e *CompositionError) Unwrap() error { return e.Err }

// ComposedService is one successfully wired service, for plan output.
type ComposedService struct {
	ID        string
	Priority  int
	BasePath  string
	Endpoints []string
}

// SkippedService is a service excluded from composition, with the reason.
type SkippedService struct {
	ID     string
	Reason string
}

// Result records what composed, in what order, and what did not.
type Result struct {
	Composed []ComposedService
	Skipped  []SkippedService
	Issues   *validation.Result

	Router    chi.Router
	Container *container.Container
}

// Plan renders the composition as a diffable list of lines for introspection
// tooling.
func (r *Result) Plan() []string {
	var out []string
	for _, c := range r.Composed {
		out = append(out, fmt.Sprintf("compose %s (priority %d) at %s", c.ID, c.Priority, c.BasePath))
		for _, e := range c.Endpoints {
			out = append(out, "  "+e)
		}
	}
	for _, s := range r.Skipped {
		out = append(out, fmt.Sprintf("skip %s: %s", s.ID, s.Reason))
	}
	return out
}

type candidate struct {
	spec *config.ServiceSpec
	reg  registry.ServiceRegistration
}

// Compose filters the configuration down to enabled services, validates each
// against its registration, then calls ConfigureServices for every valid
// service in ascending (Priority, ServiceID) order followed by MapEndpoints
// in the same order. Composition is strictly sequential: later services may
// depend on container state registered by earlier ones.
//
// Default policy is fail-fast: the first failing service aborts the whole
// composition with a *CompositionError. With Options.ContinueOnError only the
// failing service is skipped and reported.
func Compose(ctx context.Context, cfg *config.ResolvedConfig, reg *registry.Registry, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	res := &Result{
		Issues:    validation.NewResult(),
		Router:    chi.NewRouter(),
		Container: container.New(),
	}

	var candidates []candidate
	for _, spec := range cfg.EnabledServices() {
		r, ok := reg.Lookup(spec.ID)
		if !ok {
			err := &CompositionError{ServiceID: spec.ID, Stage: "discovery",
				Err: fmt.Errorf("service %q has no registered implementation", spec.ID)}
			res.Issues.AddErrorf(validation.PhaseServiceConfig, "service."+spec.ID,
				"service %q has no registered implementation", spec.ID)
			if !opts.ContinueOnError {
				return nil, err
			}
			res.Skipped = append(res.Skipped, SkippedService{ID: spec.ID, Reason: "no registered implementation"})
			continue
		}

		if vres := r.Validate(spec, cfg); vres != nil {
			merged := retag(vres)
			res.Issues.Merge(merged)
			if !merged.Valid() {
				err := &CompositionError{ServiceID: spec.ID, Stage: "validate",
					Err: fmt.Errorf("%s", merged.Errors[0].Message)}
				if !opts.ContinueOnError {
					return nil, err
				}
				res.Skipped = append(res.Skipped, SkippedService{ID: spec.ID, Reason: "invalid service configuration"})
				continue
			}
		}
		candidates = append(candidates, candidate{spec: spec, reg: r})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].reg.Priority() != candidates[j].reg.Priority() {
			return candidates[i].reg.Priority() < candidates[j].reg.Priority()
		}
		return candidates[i].spec.ID < candidates[j].spec.ID
	})

	// All ConfigureServices calls happen before any MapEndpoints call.
	var configured []candidate
	for _, c := range candidates {
		if err := c.reg.ConfigureServices(res.Container, c.spec, cfg); err != nil {
			cerr := &CompositionError{ServiceID: c.spec.ID, Stage: "configure", Err: err}
			if !opts.ContinueOnError {
				return nil, cerr
			}
			logger.Warn("service failed to configure, skipping", "service", c.spec.ID, "error", err)
			res.Issues.AddErrorf(validation.PhaseServiceConfig, "service."+c.spec.ID,
				"ConfigureServices failed: %v", err)
			res.Skipped = append(res.Skipped, SkippedService{ID: c.spec.ID, Reason: "ConfigureServices failed"})
			continue
		}
		configured = append(configured, c)
	}

	for _, c := range configured {
		base := basePath(c.spec)
		sub := chi.NewRouter()
		if err := c.reg.MapEndpoints(sub, c.spec, cfg); err != nil {
			cerr := &CompositionError{ServiceID: c.spec.ID, Stage: "map-endpoints", Err: err}
			if !opts.ContinueOnError {
				return nil, cerr
			}
			logger.Warn("service failed to map endpoints, skipping", "service", c.spec.ID, "error", err)
			res.Issues.AddErrorf(validation.PhaseServiceConfig, "service."+c.spec.ID,
				"MapEndpoints failed: %v", err)
			res.Skipped = append(res.Skipped, SkippedService{ID: c.spec.ID, Reason: "MapEndpoints failed"})
			continue
		}
		// The subrouter mounts only after MapEndpoints succeeded, so a
		// failed service never exposes partial endpoints.
		res.Router.Mount(base, sub)
		res.Composed = append(res.Composed, ComposedService{
			ID:        c.spec.ID,
			Priority:  c.reg.Priority(),
			BasePath:  base,
			Endpoints: listEndpoints(sub, base),
		})
		logger.Info("service composed", "service", c.spec.ID, "base_path", base)
	}

	return res, nil
}

func basePath(spec *config.ServiceSpec) string {
	if spec.Path != "" {
		return spec.Path
	}
	return "/" + spec.ID
}

func listEndpoints(r chi.Routes, base string) []string {
	var out []string
	_ = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, method+" "+path.Join(base, route))
		return nil
	})
	sort.Strings(out)
	return out
}

// retag forces the service-config phase onto issues coming back from a
// registration's Validate hook, whatever the module set.
func retag(in *validation.Result) *validation.Result {
	out := validation.NewResult()
	for _, i := range in.Errors {
		out.Errors = append(out.Errors, validation.Issue{
			Phase: validation.PhaseServiceConfig, Severity: validation.SeverityError,
			Location: i.Location, Message: i.Message, Suggestion: i.Suggestion,
		})
	}
	for _, i := range in.Warnings {
		out.Warnings = append(out.Warnings, validation.Issue{
			Phase: validation.PhaseServiceConfig, Severity: validation.SeverityWarning,
			Location: i.Location, Message: i.Message, Suggestion: i.Suggestion,
		})
	}
	return out
}
