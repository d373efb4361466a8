package validation_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/honua-io/honua/internal/schema"
	"github.com/honua-io/honua/internal/testutil"
	"github.com/honua-io/honua/internal/validation"
)

// fakeAdapter is an in-memory schema.Adapter for runtime validation tests.
type fakeAdapter struct {
	provider   string
	db         *schema.Database
	connectErr     error
	pingErr        error
	blockOnConnect bool
	connects       *atomic.Int32
}

func (f *fakeAdapter) Provider() string { return f.provider }

func (f *fakeAdapter) Connect(ctx context.Context, _ string) error {
	if f.connects != nil {
		f.connects.Add(1)
	}
	if f.blockOnConnect {
		// Simulates an unresponsive backend: only cancellation releases it.
		<-ctx.Done()
		return ctx.Err()
	}
	return f.connectErr
}

func (f *fakeAdapter) Close() error { return nil }

func (f *fakeAdapter) Ping(context.Context) error { return f.pingErr }

func (f *fakeAdapter) Inspect(context.Context) (*schema.Database, error) {
	return f.db, nil
}

func cityDatabase() *schema.Database {
	return &schema.Database{
		Provider: "sqlite",
		Tables: []schema.Table{
			{
				Name: "streets",
				Columns: []schema.Column{
					{Name: "id", Type: "INTEGER"},
					{Name: "name", Type: "TEXT", Nullable: true},
					{Name: "geom", Type: "GEOMETRY", Nullable: true},
				},
				PrimaryKey:     "id",
				GeometryColumn: "geom",
			},
		},
	}
}

func TestRunRuntime_UnreachableSourceDoesNotAbortOthers(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `data_source "alpha" {
	provider   = "sqlite"
	connection = "./alpha.db"
}

data_source "beta" {
	provider   = "sqlite"
	connection = "./beta.db"
}

layer "streets" {
	data_source = data_source.alpha
	table       = "streets"
	id_field    = "id"
}
`, nil)

	var connects atomic.Int32
	res := validation.RunRuntime(context.Background(), cfg, validation.RuntimeOptions{
		NewAdapter: func(provider string) (schema.Adapter, error) {
			return &fakeAdapter{provider: provider, db: cityDatabase(), connects: &connects}, nil
		},
	})
	// Both sources are probed and the reachable one passes its schema checks.
	require.True(t, res.Valid())
	require.Equal(t, int32(2), connects.Load())

	res = validation.RunRuntime(context.Background(), cfg, validation.RuntimeOptions{
		NewAdapter: func(provider string) (schema.Adapter, error) {
			return &fakeAdapter{
				provider:   provider,
				db:         cityDatabase(),
				connectErr: errors.New("dial tcp: connection refused"),
			}, nil
		},
	})
	require.Len(t, res.Errors, 2)
	// Deterministic ID order regardless of goroutine completion order.
	require.Equal(t, "data_source.alpha", res.Errors[0].Location)
	require.Equal(t, "data_source.beta", res.Errors[1].Location)
	require.Contains(t, res.Errors[0].Message, "connection failed")
}

func TestRunRuntime_OneFailingSourceOneError(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `data_source "good" {
	provider   = "sqlite"
	connection = "./good.db"
}

data_source "unreachable" {
	provider   = "postgresql"
	connection = "Host=db.internal"
}

layer "streets" {
	data_source = data_source.good
	table       = "streets"
	id_field    = "id"
}
`, nil)

	res := validation.RunRuntime(context.Background(), cfg, validation.RuntimeOptions{
		NewAdapter: func(provider string) (schema.Adapter, error) {
			if provider == "postgresql" {
				return &fakeAdapter{provider: provider, connectErr: errors.New("no route to host")}, nil
			}
			return &fakeAdapter{provider: provider, db: cityDatabase()}, nil
		},
	})
	require.Len(t, res.Errors, 1)
	require.Equal(t, "data_source.unreachable", res.Errors[0].Location)
}

func TestRunRuntime_UnsupportedProviderIsWarning(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `data_source "legacy" {
	provider   = "oracle"
	connection = "legacy.internal:1521"
}
`, nil)

	res := validation.RunRuntime(context.Background(), cfg, validation.RuntimeOptions{
		NewAdapter: func(provider string) (schema.Adapter, error) {
			return nil, &schema.UnsupportedProviderError{Provider: provider}
		},
	})
	require.True(t, res.Valid())
	require.Len(t, res.Warnings, 1)
	require.Equal(t, "data_source.legacy.provider", res.Warnings[0].Location)
	require.Contains(t, res.Warnings[0].Message, "live validation is not supported for provider 'oracle'")
}

func TestRunRuntime_CancellationYieldsPartialResult(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `data_source "fast" {
	provider   = "sqlite"
	connection = "./fast.db"
}

data_source "hung" {
	provider   = "postgresql"
	connection = "Host=db.internal"
}
`, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := validation.RunRuntime(ctx, cfg, validation.RuntimeOptions{
		ProbeTimeout: time.Minute,
		NewAdapter: func(provider string) (schema.Adapter, error) {
			if provider == "postgresql" {
				return &fakeAdapter{provider: provider, blockOnConnect: true}, nil
			}
			return &fakeAdapter{provider: provider, db: cityDatabase()}, nil
		},
	})

	// The hung probe is released by cancellation and reported as one error;
	// the healthy source still contributes its clean result.
	require.Len(t, res.Errors, 1)
	require.Equal(t, "data_source.hung", res.Errors[0].Location)
	require.Contains(t, res.Errors[0].Message, "connection failed")
	require.Contains(t, res.Errors[0].Message, context.Canceled.Error())
}

func TestRunRuntime_SchemaChecks(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `data_source "db" {
	provider   = "sqlite"
	connection = "./city.db"
}

layer "streets" {
	data_source   = data_source.db
	table         = "streets"
	id_field      = "id"
	display_field = "label"

	geometry {
		column = "shape"
		type   = "LineString"
		srid   = 4326
	}
}

layer "missing" {
	data_source = data_source.db
	table       = "parcels"
	id_field    = "id"
}
`, nil)

	res := validation.RunRuntime(context.Background(), cfg, validation.RuntimeOptions{
		NewAdapter: func(provider string) (schema.Adapter, error) {
			return &fakeAdapter{provider: provider, db: cityDatabase()}, nil
		},
	})
	require.Len(t, res.Errors, 3)

	byLocation := make(map[string]validation.Issue)
	for _, e := range res.Errors {
		byLocation[e.Location] = e
	}
	require.Contains(t, byLocation, "layer.missing.table")
	require.Contains(t, byLocation["layer.missing.table"].Message, "table 'parcels' does not exist")
	require.Contains(t, byLocation["layer.missing.table"].Suggestion, "available tables: streets")

	require.Contains(t, byLocation, "layer.streets.display_field")
	require.Contains(t, byLocation, "layer.streets.geometry.column")
	require.Contains(t, byLocation["layer.streets.geometry.column"].Message, `column "shape" does not exist`)
}

func TestRunRuntime_ColumnMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `data_source "db" {
	provider   = "sqlite"
	connection = "./city.db"
}

layer "streets" {
	data_source = data_source.db
	table       = "Streets"
	id_field    = "ID"
}
`, nil)

	res := validation.RunRuntime(context.Background(), cfg, validation.RuntimeOptions{
		NewAdapter: func(provider string) (schema.Adapter, error) {
			return &fakeAdapter{provider: provider, db: cityDatabase()}, nil
		},
	})
	require.True(t, res.Valid())
}

func TestRunRuntime_NoSchemaInspectionWithoutLayers(t *testing.T) {
	t.Parallel()

	cfg := testutil.MustResolve(t, `data_source "db" {
	provider   = "sqlite"
	connection = "./city.db"
}
`, nil)

	res := validation.RunRuntime(context.Background(), cfg, validation.RuntimeOptions{
		NewAdapter: func(provider string) (schema.Adapter, error) {
			// Inspect would return a nil database; liveness alone must pass.
			return &fakeAdapter{provider: provider}, nil
		},
	})
	require.True(t, res.Valid())
}
