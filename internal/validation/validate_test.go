package validation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/honua-io/honua/internal/testutil"
	"github.com/honua-io/honua/internal/validation"
)

func TestRun_SyntaxOnlySkipsSemantic(t *testing.T) {
	t.Parallel()

	// The dangling reference is a semantic finding; syntax-only must not see it.
	cfg := testutil.MustResolve(t, `layer "streets" {
	data_source = data_source.nowhere
	table       = "streets"
	id_field    = "id"
}
`, nil)

	res := validation.Run(context.Background(), cfg, validation.Options{Mode: validation.SyntaxOnly})
	require.True(t, res.Valid())

	res = validation.Run(context.Background(), cfg, validation.Options{Mode: validation.Default})
	require.False(t, res.Valid())
}

func TestRun_FailFastStopsAfterSyntaxErrors(t *testing.T) {
	t.Parallel()

	// Both a syntax error (bad provider) and a semantic error (dangling ref)
	// exist. Fail-fast reports only the first phase's findings.
	src := `data_source "db" {
	provider   = "mongodb"
	connection = "mongodb://localhost"
}

layer "streets" {
	data_source = data_source.nowhere
	table       = "streets"
	id_field    = "id"
}
`
	cfg := testutil.MustResolve(t, src, nil)

	failFast := validation.Run(context.Background(), cfg, validation.Options{
		Mode: validation.Default, FailFast: true,
	})
	require.Len(t, failFast.Errors, 1)
	require.Equal(t, validation.PhaseSyntax, failFast.Errors[0].Phase)

	full := validation.Run(context.Background(), cfg, validation.Options{Mode: validation.Default})
	require.Len(t, full.Errors, 2)
	require.Equal(t, validation.PhaseSyntax, full.Errors[0].Phase)
	require.Equal(t, validation.PhaseSemantic, full.Errors[1].Phase)
}

func TestRun_PhaseOrderIsStable(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, validSource, nil)
	first := validation.Run(context.Background(), cfg, validation.Options{Mode: validation.Default})
	second := validation.Run(context.Background(), cfg, validation.Options{Mode: validation.Default})
	require.Equal(t, first, second)
}

func TestIssue_String(t *testing.T) {
	t.Parallel()

	issue := validation.Issue{
		Phase:    validation.PhaseSemantic,
		Severity: validation.SeverityError,
		Location: "layer.streets.data_source",
		Message:  "reference to undeclared data_source 'databse'",
	}
	require.Equal(t,
		"error: [semantic] layer.streets.data_source: reference to undeclared data_source 'databse'",
		issue.String())

	issue.Suggestion = "did you mean 'database'?"
	require.Equal(t,
		"error: [semantic] layer.streets.data_source: reference to undeclared data_source 'databse' (did you mean 'database'?)",
		issue.String())
}

func TestResult_MergeAndIssues(t *testing.T) {
	t.Parallel()

	a := validation.NewResult()
	a.AddError(validation.PhaseSyntax, "honua.port", "port 70000 is out of range")
	b := validation.NewResult()
	b.AddWarning(validation.PhaseSemantic, "cache.tiles", "cache 'tiles' is declared but never used")

	a.Merge(b)
	require.False(t, a.Valid())
	require.Len(t, a.Issues(), 2)
	// Errors render before warnings.
	require.Equal(t, validation.SeverityError, a.Issues()[0].Severity)
	require.Equal(t, validation.SeverityWarning, a.Issues()[1].Severity)

	a.Merge(nil)
	require.Len(t, a.Issues(), 2)
}
