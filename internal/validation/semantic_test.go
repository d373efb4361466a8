package validation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/honua-io/honua/internal/testutil"
	"github.com/honua-io/honua/internal/validation"
)

func TestRunSemantic_CleanConfig(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, validSource, nil)
	res := validation.RunSemantic(cfg)
	require.True(t, res.Valid())
	require.Empty(t, res.Warnings)
}

func TestRunSemantic_DanglingDataSourceReference(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `data_source "database" {
	provider   = "sqlite"
	connection = "./city.db"
}

service "wfs" {
	enabled = true
}

layer "streets" {
	data_source = data_source.databse
	table       = "streets"
	id_field    = "id"
	services    = ["wfs"]
}
`, nil)
	res := validation.RunSemantic(cfg)

	// Exactly one error for the dangling reference, plus the unused warning
	// for the data source nothing points at.
	require.Len(t, res.Errors, 1)
	issue := res.Errors[0]
	require.Equal(t, validation.PhaseSemantic, issue.Phase)
	require.Equal(t, "layer.streets.data_source", issue.Location)
	require.Contains(t, issue.Message, "undeclared data_source 'databse'")
	require.Equal(t, "did you mean 'database'?", issue.Suggestion)
}

func TestRunSemantic_DistantTypoListsAlternatives(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `data_source "city" {
	provider   = "sqlite"
	connection = "./city.db"
}

layer "streets" {
	data_source = data_source.warehouse
	table       = "streets"
	id_field    = "id"
}
`, nil)
	res := validation.RunSemantic(cfg)
	require.NotEmpty(t, res.Errors)
	require.Contains(t, res.Errors[0].Suggestion, "declared data_source ids: city")
}

func TestRunSemantic_DuplicateID(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `data_source "db" {
	provider   = "sqlite"
	connection = "./a.db"
}

data_source "db" {
	provider   = "sqlite"
	connection = "./b.db"
}
`, nil)
	res := validation.RunSemantic(cfg)
	require.False(t, res.Valid())
	require.Equal(t, "data_source.db", res.Errors[0].Location)
	require.Equal(t, `duplicate data_source id "db"`, res.Errors[0].Message)
}

func TestRunSemantic_DuplicateSingletonBlock(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `honua {
	title = "first"
}

honua {
	title = "second"
}
`, nil)
	res := validation.RunSemantic(cfg)
	require.False(t, res.Valid())
	require.Equal(t, "honua", res.Errors[0].Location)
	require.Equal(t, "duplicate honua block", res.Errors[0].Message)
}

func TestRunSemantic_OrphanedLayerWarnsOnce(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `data_source "db" {
	provider   = "sqlite"
	connection = "./city.db"
}

layer "streets" {
	data_source = data_source.db
	table       = "streets"
	id_field    = "id"
}
`, nil)
	res := validation.RunSemantic(cfg)

	// Orphaned layers are a warning, never an error.
	require.True(t, res.Valid())
	var orphaned []validation.Issue
	for _, w := range res.Warnings {
		if w.Location == "layer.streets" {
			orphaned = append(orphaned, w)
		}
	}
	require.Len(t, orphaned, 1)
	require.Equal(t, "orphaned layer 'streets'", orphaned[0].Message)
}

func TestRunSemantic_DisabledServiceReference(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `data_source "db" {
	provider   = "sqlite"
	connection = "./city.db"
}

service "wms" {
	enabled = false
}

layer "streets" {
	data_source = data_source.db
	table       = "streets"
	id_field    = "id"
	services    = ["wms"]
}
`, nil)
	res := validation.RunSemantic(cfg)
	require.False(t, res.Valid())
	require.Equal(t, "layer.streets.services", res.Errors[0].Location)
	require.Contains(t, res.Errors[0].Message, `service "wms" is referenced here but not enabled`)
}

func TestRunSemantic_DottedServiceReference(t *testing.T) {
	t.Parallel()

	// References may be written dotted or bare; both resolve.
	cfg := testutil.MustResolve(t, `data_source "db" {
	provider   = "sqlite"
	connection = "./city.db"
}

service "wfs" {
	enabled = true
}

layer "streets" {
	data_source = data_source.db
	table       = "streets"
	id_field    = "id"
	services    = [service.wfs]
}
`, nil)
	res := validation.RunSemantic(cfg)
	require.True(t, res.Valid())
}

func TestRunSemantic_UnusedDeclarations(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `data_source "db" {
	provider   = "sqlite"
	connection = "./city.db"
}

cache "tiles" {
	provider = "memory"
}
`, nil)
	res := validation.RunSemantic(cfg)
	require.True(t, res.Valid())
	require.Len(t, res.Warnings, 2)
	require.Contains(t, res.Warnings[0].Message, "'db' is declared but never used")
	require.Contains(t, res.Warnings[1].Message, "'tiles' is declared but never used")
}

func TestRunSemantic_DanglingCacheReference(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `service "wfs" {
	enabled = true
	cache   = cache.tile_cache
}

cache "tile_cach" {
	provider = "memory"
}
`, nil)
	res := validation.RunSemantic(cfg)
	require.False(t, res.Valid())
	require.Equal(t, "service.wfs.cache", res.Errors[0].Location)
	require.Equal(t, "did you mean 'tile_cach'?", res.Errors[0].Suggestion)
}

func TestRunSemantic_ProductionPolicy(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `honua {
	environment = "production"
}

data_source "db" {
	provider   = "sqlite"
	connection = "./city.db"
}

service "wfs" {
	enabled = true

	cors {
		allow_any_origin = true
	}
}

layer "streets" {
	data_source = data_source.db
	table       = "streets"
	id_field    = "id"
	services    = ["wfs"]
}
`, nil)
	res := validation.RunSemantic(cfg)
	require.True(t, res.Valid())

	var messages []string
	for _, w := range res.Warnings {
		messages = append(messages, w.Message)
	}
	require.Contains(t, messages, "allow_any_origin is enabled in a production environment")
	require.Contains(t, messages, "no rate limiting is enabled in a production environment")
}

func TestRunSemantic_NoProductionPolicyOutsideProduction(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, validSource, nil)
	res := validation.RunSemantic(cfg)
	for _, w := range res.Warnings {
		require.NotContains(t, w.Message, "production")
	}
}

func TestRefID(t *testing.T) {
	t.Parallel()

	require.Equal(t, "db", validation.RefID("data_source", "data_source.db"))
	require.Equal(t, "db", validation.RefID("data_source", "db"))
}
