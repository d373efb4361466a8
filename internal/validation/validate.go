package validation

import (
	"context"

	"github.com/honua-io/honua/internal/config"
)

// Options selects the phases to run and the short-circuit policy.
type Options struct {
	Mode Mode

	// FailFast stops after the first phase that produced errors. Off by
	// default: phases are otherwise independent so a single run reports as
	// much as possible.
	FailFast bool

	Runtime RuntimeOptions
}

// Run executes the phases selected by opts.Mode and merges their results in
// phase order.
func Run(ctx context.Context, cfg *config.ResolvedConfig, opts Options) *Result {
	res := RunSyntax(cfg)
	if opts.Mode == SyntaxOnly {
		return res
	}
	if opts.FailFast && !res.Valid() {
		return res
	}

	res.Merge(RunSemantic(cfg))
	if opts.Mode != Full {
		return res
	}
	if opts.FailFast && !res.Valid() {
		return res
	}

	res.Merge(RunRuntime(ctx, cfg, opts.Runtime))
	return res
}
