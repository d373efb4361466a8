package validation

import (
	"regexp"

	"github.com/honua-io/honua/internal/config"
)

// Providers accepted by data_source blocks.
var dataSourceProviders = map[string]struct{}{
	"sqlite":     {},
	"postgresql": {},
	"sqlserver":  {},
	"mysql":      {},
	"oracle":     {},
}

var cacheProviders = map[string]struct{}{
	"memory": {},
	"redis":  {},
}

var geometryTypes = map[string]struct{}{
	"Point":           {},
	"LineString":      {},
	"Polygon":         {},
	"MultiPoint":      {},
	"MultiLineString": {},
	"MultiPolygon":    {},
}

var environments = map[string]struct{}{
	config.EnvDevelopment: {},
	config.EnvStaging:     {},
	config.EnvProduction:  {},
}

// durationRe matches the duration shorthand used throughout the language,
// e.g. "30s", "5m", "12h", "7d".
var durationRe = regexp.MustCompile(`^\d+[smhd]$`)

// RunSyntax performs the pure, per-block checks: required attributes, enum
// membership, numeric ranges, duration formats and mutually exclusive flags.
// It touches no I/O and consults no cross-block state.
func RunSyntax(cfg *config.ResolvedConfig) *Result {
	res := NewResult()

	if env := cfg.Settings.Environment; env != "" {
		if _, ok := environments[env]; !ok {
			res.AddErrorf(PhaseSyntax, "honua.environment",
				"unknown environment %q, expected development, staging or production", env)
		}
	}
	if cfg.Settings.Port < 0 || cfg.Settings.Port > 65535 {
		res.AddErrorf(PhaseSyntax, "honua.port", "port %d is out of range", cfg.Settings.Port)
	}

	for _, id := range cfg.DataSourceIDs() {
		checkDataSource(res, cfg.DataSources[id])
	}
	for _, id := range cfg.ServiceIDs() {
		checkService(res, cfg.Services[id])
	}
	for _, id := range cfg.LayerIDs() {
		checkLayer(res, cfg.Layers[id])
	}
	for _, id := range cfg.CacheIDs() {
		checkCache(res, cfg.Caches[id])
	}
	if rl := cfg.RateLimit; rl != nil {
		if rl.Enabled && rl.RequestsPerMinute <= 0 {
			res.AddError(PhaseSyntax, "rate_limit.requests_per_minute",
				"requests_per_minute must be > 0")
		}
		if rl.Burst < 0 {
			res.AddError(PhaseSyntax, "rate_limit.burst", "burst must not be negative")
		}
	}

	return res
}

func checkDataSource(res *Result, ds *config.DataSourceSpec) {
	loc := "data_source." + ds.ID
	if ds.Provider == "" {
		res.AddError(PhaseSyntax, loc+".provider", "data_source requires a provider")
	} else if _, ok := dataSourceProviders[ds.Provider]; !ok {
		res.AddErrorf(PhaseSyntax, loc+".provider",
			"unknown provider %q, expected sqlite, postgresql, sqlserver, mysql or oracle", ds.Provider)
	}
	if ds.Connection == "" {
		res.AddError(PhaseSyntax, loc+".connection", "data_source requires a connection string")
	}
	if p := ds.Pool; p != nil {
		if p.MinSize < 0 {
			res.AddError(PhaseSyntax, loc+".pool.min_size", "min_size must not be negative")
		}
		if p.MaxSize > 0 && p.MinSize > p.MaxSize {
			res.AddErrorf(PhaseSyntax, loc+".pool",
				"min_size %d exceeds max_size %d", p.MinSize, p.MaxSize)
		}
		checkDuration(res, loc+".pool.timeout", p.Timeout)
	}
}

func checkService(res *Result, svc *config.ServiceSpec) {
	loc := "service." + svc.ID
	// Zero means unset; only an explicit negative value is rejected.
	if svc.MaxFeatures < 0 {
		res.AddError(PhaseSyntax, loc+".max_features", "max_features must be > 0")
	}
	if svc.DefaultCount < 0 {
		res.AddError(PhaseSyntax, loc+".default_count", "default_count must not be negative")
	}
	if svc.MaxFeatures > 0 && svc.DefaultCount > svc.MaxFeatures {
		res.AddErrorf(PhaseSyntax, loc+".default_count",
			"default_count %d exceeds max_features %d", svc.DefaultCount, svc.MaxFeatures)
	}
	if c := svc.Cors; c != nil {
		if c.AllowAnyOrigin && c.AllowCredentials {
			// A wildcard origin must never carry credentials.
			res.AddError(PhaseSyntax, loc+".cors",
				"allow_any_origin and allow_credentials are mutually exclusive")
		}
		if c.AllowAnyOrigin && len(c.AllowedOrigins) > 0 {
			res.AddError(PhaseSyntax, loc+".cors",
				"allowed_origins has no effect when allow_any_origin is set")
		}
		checkDuration(res, loc+".cors.max_age", c.MaxAge)
	}
}

func checkLayer(res *Result, l *config.LayerSpec) {
	loc := "layer." + l.ID
	if l.DataSource == "" {
		res.AddError(PhaseSyntax, loc+".data_source", "layer requires a data_source reference")
	}
	if l.Table == "" {
		res.AddError(PhaseSyntax, loc+".table", "layer requires a table")
	}
	if l.IDField == "" {
		res.AddError(PhaseSyntax, loc+".id_field", "layer requires an id_field")
	}
	if g := l.Geometry; g != nil {
		if g.Column == "" {
			res.AddError(PhaseSyntax, loc+".geometry.column", "geometry requires a column")
		}
		if g.Type == "" {
			res.AddError(PhaseSyntax, loc+".geometry.type", "geometry requires a type")
		} else if _, ok := geometryTypes[g.Type]; !ok {
			res.AddErrorf(PhaseSyntax, loc+".geometry.type",
				"unknown geometry type %q, expected Point, LineString, Polygon, MultiPoint, MultiLineString or MultiPolygon", g.Type)
		}
		if g.SRID <= 0 {
			res.AddError(PhaseSyntax, loc+".geometry.srid", "srid must be > 0")
		}
	}
}

func checkCache(res *Result, c *config.CacheSpec) {
	loc := "cache." + c.ID
	if c.Provider == "" {
		res.AddError(PhaseSyntax, loc+".provider", "cache requires a provider")
	} else if _, ok := cacheProviders[c.Provider]; !ok {
		res.AddErrorf(PhaseSyntax, loc+".provider",
			"unknown cache provider %q, expected memory or redis", c.Provider)
	}
	if c.Provider == "redis" && c.Connection == "" {
		res.AddError(PhaseSyntax, loc+".connection", "redis cache requires a connection string")
	}
	if c.MaxEntries < 0 {
		res.AddError(PhaseSyntax, loc+".max_entries", "max_entries must not be negative")
	}
	checkDuration(res, loc+".ttl", c.TTL)
}

func checkDuration(res *Result, location, value string) {
	if value == "" {
		return
	}
	if !durationRe.MatchString(value) {
		res.AddErrorf(PhaseSyntax, location,
			"invalid duration %q, expected a number followed by s, m, h or d", value)
	}
}
