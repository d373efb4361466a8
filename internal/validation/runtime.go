package validation

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/honua-io/honua/internal/config"
	"github.com/honua-io/honua/internal/ctxlog"
	"github.com/honua-io/honua/internal/schema"
)

// RuntimeOptions tunes the live connectivity phase.
type RuntimeOptions struct {
	// Workers caps the bounded pool probing data sources concurrently.
	Workers int

	// ProbeTimeout bounds each individual data source check.
	ProbeTimeout time.Duration

	// NewAdapter overrides the schema adapter factory; tests use it to
	// substitute fakes. Nil means schema.New.
	NewAdapter func(provider string) (schema.Adapter, error)
}

const (
	defaultRuntimeWorkers = 4
	defaultProbeTimeout   = 10 * time.Second
)

// RunRuntime probes every declared data source for liveness and, for layers
// that declare table, field or geometry bindings, verifies those against the
// live schema. Sources are checked concurrently under a bounded pool; one
// unreachable source contributes one error and never prevents checking the
// others. The aggregate is ordered by data source ID so output is
// deterministic regardless of completion order.
func RunRuntime(ctx context.Context, cfg *config.ResolvedConfig, opts RuntimeOptions) *Result {
	if opts.Workers <= 0 {
		opts.Workers = defaultRuntimeWorkers
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeTimeout
	}
	newAdapter := opts.NewAdapter
	if newAdapter == nil {
		newAdapter = schema.New
	}

	ids := cfg.DataSourceIDs()
	layersBySource := groupLayersBySource(cfg)

	results := make([]*Result, len(ids))
	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			results[i] = probeDataSource(ctx, cfg.DataSources[id], layersBySource[id], newAdapter, opts.ProbeTimeout)
			return nil
		})
	}
	// Probe goroutines never return errors; per-source failures are issues
	// in their slot of the aggregate.
	_ = g.Wait()

	res := NewResult()
	for _, r := range results {
		res.Merge(r)
	}
	return res
}

// groupLayersBySource maps data source IDs to the layers that read from
// them, ordered by layer ID.
func groupLayersBySource(cfg *config.ResolvedConfig) map[string][]*config.LayerSpec {
	out := make(map[string][]*config.LayerSpec)
	for _, id := range cfg.LayerIDs() {
		l := cfg.Layers[id]
		if l.DataSource == "" {
			continue
		}
		dsID := RefID("data_source", l.DataSource)
		out[dsID] = append(out[dsID], l)
	}
	return out
}

func probeDataSource(
	ctx context.Context,
	ds *config.DataSourceSpec,
	layers []*config.LayerSpec,
	newAdapter func(string) (schema.Adapter, error),
	timeout time.Duration,
) *Result {
	res := NewResult()
	loc := "data_source." + ds.ID
	logger := ctxlog.FromContext(ctx).With("data_source", ds.ID, "provider", ds.Provider)

	adapter, err := newAdapter(ds.Provider)
	if err != nil {
		var unsupported *schema.UnsupportedProviderError
		if errors.As(err, &unsupported) {
			res.AddWarning(PhaseRuntime, loc+".provider",
				"live validation is not supported for provider '"+ds.Provider+"'")
			return res
		}
		res.AddErrorf(PhaseRuntime, loc, "cannot create adapter: %v", err)
		return res
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := adapter.Connect(probeCtx, ds.Connection); err != nil {
		logger.Warn("data source probe failed", "error", err)
		res.AddErrorf(PhaseRuntime, loc, "connection failed: %v", err)
		return res
	}
	defer adapter.Close()

	if err := adapter.Ping(probeCtx); err != nil {
		res.AddErrorf(PhaseRuntime, loc, "liveness probe failed: %v", err)
		return res
	}
	logger.Debug("data source reachable")

	if !layersNeedSchema(layers) {
		return res
	}
	db, err := adapter.Inspect(probeCtx)
	if err != nil {
		res.AddErrorf(PhaseRuntime, loc, "schema introspection failed: %v", err)
		return res
	}
	for _, l := range layers {
		checkLayerSchema(res, l, db)
	}
	return res
}

func layersNeedSchema(layers []*config.LayerSpec) bool {
	for _, l := range layers {
		if l.Table != "" {
			return true
		}
	}
	return false
}

// checkLayerSchema verifies a layer's declared table and columns against the
// introspected database.
func checkLayerSchema(res *Result, l *config.LayerSpec, db *schema.Database) {
	if l.Table == "" {
		return
	}
	loc := "layer." + l.ID
	table := db.Table(l.Table)
	if table == nil {
		res.AddErrorWithSuggestion(PhaseRuntime, loc+".table",
			"table '"+l.Table+"' does not exist in data source",
			"available tables: "+strings.Join(db.TableNames(), ", "))
		return
	}

	checkColumn(res, table, l.IDField, loc+".id_field")
	checkColumn(res, table, l.DisplayField, loc+".display_field")
	if l.Geometry != nil {
		checkColumn(res, table, l.Geometry.Column, loc+".geometry.column")
	}
	if l.Fields != nil {
		for _, f := range l.Fields.Include {
			checkColumn(res, table, f, loc+".fields.include")
		}
	}
}

func checkColumn(res *Result, table *schema.Table, column, location string) {
	if column == "" {
		return
	}
	if table.Column(column) == nil {
		res.AddErrorf(PhaseRuntime, location,
			"column %q does not exist in table %q", column, table.Name)
	}
}
