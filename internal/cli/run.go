package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/honua-io/honua/internal/app"
	"github.com/honua-io/honua/internal/composer"
	"github.com/honua-io/honua/internal/schema"
	"github.com/honua-io/honua/internal/validation"
)

// Run executes a parsed command, writing the diffable output to outW. The
// returned error is nil on success; validation failures come back as an
// ExitError with code 1 so callers can exit without special-casing.
func Run(ctx context.Context, cmd *Command, outW io.Writer) error {
	switch cmd.Name {
	case "validate":
		return runValidate(ctx, cmd, outW)
	case "plan":
		return runPlan(ctx, cmd, outW)
	case "inspect":
		return runInspect(ctx, cmd, outW)
	default:
		return &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", cmd.Name)}
	}
}

func runValidate(ctx context.Context, cmd *Command, outW io.Writer) error {
	a, err := app.New(ctx, outW, cmd.App)
	if err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}
	res := a.Validate(ctx)
	printIssues(outW, res)
	if !res.Valid() {
		return &ExitError{Code: 1, Message: fmt.Sprintf("%d error(s) found", len(res.Errors))}
	}
	fmt.Fprintln(outW, "configuration is valid")
	return nil
}

func runPlan(ctx context.Context, cmd *Command, outW io.Writer) error {
	a, err := app.New(ctx, outW, cmd.App)
	if err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}
	res := a.Validate(ctx)
	if !res.Valid() {
		printIssues(outW, res)
		return &ExitError{Code: 1, Message: "configuration is invalid, not composing"}
	}

	comp, err := a.Compose(ctx, composer.Options{ContinueOnError: cmd.ContinueOnError})
	if err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}
	for _, line := range comp.Plan() {
		fmt.Fprintln(outW, line)
	}
	printIssues(outW, comp.Issues)
	return nil
}

func runInspect(ctx context.Context, cmd *Command, outW io.Writer) error {
	db, err := schema.Inspect(ctx, cmd.Provider, cmd.Connection)
	if err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}
	enc := json.NewEncoder(outW)
	enc.SetIndent("", "  ")
	return enc.Encode(db)
}

func printIssues(outW io.Writer, res *validation.Result) {
	for _, issue := range res.Issues() {
		fmt.Fprintln(outW, issue.String())
	}
}
