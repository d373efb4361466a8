package validation

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/honua-io/honua/internal/config"
)

// RunSemantic performs the cross-block checks over the symbol table:
// dangling references, duplicate IDs, unused declarations, orphaned layers
// and environment-aware policy warnings. It performs no I/O.
func RunSemantic(cfg *config.ResolvedConfig) *Result {
	res := NewResult()

	for _, d := range cfg.Duplicates {
		if d.Label == "" {
			res.AddErrorf(PhaseSemantic, d.Location, "duplicate %s block", d.Kind)
			continue
		}
		res.AddErrorf(PhaseSemantic, d.Location, "duplicate %s id %q", d.Kind, d.Label)
	}

	usedDataSources := make(map[string]struct{})
	usedServices := make(map[string]struct{})
	usedCaches := make(map[string]struct{})

	for _, id := range cfg.LayerIDs() {
		l := cfg.Layers[id]
		loc := "layer." + id

		if l.DataSource != "" {
			dsID := RefID("data_source", l.DataSource)
			if _, ok := cfg.DataSources[dsID]; !ok {
				res.AddErrorWithSuggestion(PhaseSemantic, loc+".data_source",
					"reference to undeclared data_source "+quote(dsID),
					nearest(dsID, cfg.DataSourceIDs(), "data_source"))
			} else {
				usedDataSources[dsID] = struct{}{}
			}
		}

		enabledRefs := 0
		for _, ref := range l.Services {
			svcID := RefID("service", ref)
			svc, ok := cfg.Services[svcID]
			if !ok {
				res.AddErrorWithSuggestion(PhaseSemantic, loc+".services",
					"reference to undeclared service "+quote(svcID),
					nearest(svcID, cfg.ServiceIDs(), "service"))
				continue
			}
			usedServices[svcID] = struct{}{}
			if !svc.Enabled {
				res.AddErrorf(PhaseSemantic, loc+".services",
					"service %q is referenced here but not enabled", svcID)
				continue
			}
			enabledRefs++
		}
		if enabledRefs == 0 {
			res.AddWarningWithSuggestion(PhaseSemantic, loc,
				"orphaned layer "+quote(id),
				"bind the layer to at least one enabled service")
		}
	}

	for _, id := range cfg.ServiceIDs() {
		svc := cfg.Services[id]
		if svc.Cache == "" {
			continue
		}
		cacheID := RefID("cache", svc.Cache)
		if _, ok := cfg.Caches[cacheID]; !ok {
			res.AddErrorWithSuggestion(PhaseSemantic, "service."+id+".cache",
				"reference to undeclared cache "+quote(cacheID),
				nearest(cacheID, cfg.CacheIDs(), "cache"))
		} else {
			usedCaches[cacheID] = struct{}{}
		}
	}

	if rl := cfg.RateLimit; rl != nil && rl.Store != "" {
		cacheID := RefID("cache", rl.Store)
		if _, ok := cfg.Caches[cacheID]; !ok {
			res.AddErrorWithSuggestion(PhaseSemantic, "rate_limit.store",
				"reference to undeclared cache "+quote(cacheID),
				nearest(cacheID, cfg.CacheIDs(), "cache"))
		} else {
			usedCaches[cacheID] = struct{}{}
		}
	}

	for _, id := range cfg.DataSourceIDs() {
		if _, ok := usedDataSources[id]; !ok {
			res.AddWarningWithSuggestion(PhaseSemantic, "data_source."+id,
				"data_source "+quote(id)+" is declared but never used",
				"reference it from a layer or remove it")
		}
	}
	for _, id := range cfg.ServiceIDs() {
		if _, ok := usedServices[id]; !ok {
			res.AddWarningWithSuggestion(PhaseSemantic, "service."+id,
				"service "+quote(id)+" is declared but no layer exposes it",
				"reference it from a layer's services list or remove it")
		}
	}
	for _, id := range cfg.CacheIDs() {
		if _, ok := usedCaches[id]; !ok {
			res.AddWarningWithSuggestion(PhaseSemantic, "cache."+id,
				"cache "+quote(id)+" is declared but never used",
				"reference it from a service or the rate_limit store, or remove it")
		}
	}

	checkProductionPolicy(res, cfg)

	return res
}

// checkProductionPolicy raises warnings for configurations that are legal but
// unsafe in a production environment.
func checkProductionPolicy(res *Result, cfg *config.ResolvedConfig) {
	if cfg.Settings.Environment != config.EnvProduction {
		return
	}
	for _, id := range cfg.ServiceIDs() {
		svc := cfg.Services[id]
		if svc.Enabled && svc.Cors != nil && svc.Cors.AllowAnyOrigin {
			res.AddWarningWithSuggestion(PhaseSemantic, "service."+id+".cors",
				"allow_any_origin is enabled in a production environment",
				"list the allowed origins explicitly")
		}
	}
	if cfg.RateLimit == nil || !cfg.RateLimit.Enabled {
		res.AddWarningWithSuggestion(PhaseSemantic, "rate_limit",
			"no rate limiting is enabled in a production environment",
			"add a rate_limit block with enabled = true")
	}
}

// RefID strips the kind prefix from a dotted reference, so both
// "data_source.db" and a bare "db" yield "db".
func RefID(kind, ref string) string {
	return strings.TrimPrefix(ref, kind+".")
}

// nearest proposes the closest declared ID for a dangling reference. IDs
// further than half their length away are considered unrelated and produce a
// listing of the available alternatives instead.
func nearest(id string, candidates []string, kind string) string {
	best := ""
	bestDist := -1
	for _, c := range candidates {
		d := levenshtein.Distance(id, c, nil)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if best != "" && bestDist*2 <= len(best) {
		return "did you mean " + quote(best) + "?"
	}
	if len(candidates) == 0 {
		return "no " + kind + " blocks are declared"
	}
	return "declared " + kind + " ids: " + strings.Join(candidates, ", ")
}

func quote(s string) string {
	return "'" + s + "'"
}
