// Package tiles registers the vector tile service module.
package tiles

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/honua-io/honua/internal/config"
	"github.com/honua-io/honua/internal/container"
	"github.com/honua-io/honua/internal/registry"
	"github.com/honua-io/honua/internal/validation"
)

// CacheKey is the container entry for the tile cache binding.
const CacheKey = "tiles.cache"

// Service is the tile service registration.
type Service struct{}

// New returns the tiles registration.
func New() registry.ServiceRegistration { return &Service{} }

// ServiceID implements registry.ServiceRegistration.
func (s *Service) ServiceID() string { return "tiles" }

// Priority implements registry.ServiceRegistration.
func (s *Service) Priority() int { return 30 }

// CacheBinding names the cache block backing the tile store, if any.
type CacheBinding struct {
	CacheID string
	Spec    *config.CacheSpec
}

// Validate requires a cache for tile serving in production.
func (s *Service) Validate(spec *config.ServiceSpec, cfg *config.ResolvedConfig) *validation.Result {
	res := validation.NewResult()
	if cfg.Settings.Environment == config.EnvProduction && spec.Cache == "" {
		res.AddWarningWithSuggestion(validation.PhaseServiceConfig, "service."+spec.ID+".cache",
			"tile service without a cache will render every tile on demand",
			"bind a cache block via the cache attribute")
	}
	return res
}

// ConfigureServices registers the cache binding for downstream services.
func (s *Service) ConfigureServices(c *container.Container, spec *config.ServiceSpec, cfg *config.ResolvedConfig) error {
	binding := &CacheBinding{}
	if spec.Cache != "" {
		id := validation.RefID("cache", spec.Cache)
		binding.CacheID = id
		binding.Spec = cfg.Caches[id]
	}
	return c.Register(CacheKey, binding)
}

// MapEndpoints mounts the tileset listing and the tile path template.
func (s *Service) MapEndpoints(r chi.Router, spec *config.ServiceSpec, cfg *config.ResolvedConfig) error {
	layers := cfg.LayersForService(spec.ID)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		var sets []string
		for _, l := range layers {
			sets = append(sets, l.ID)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"tilesets": sets})
	})
	r.Get("/{layer}/{z}/{x}/{y}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "layer")
		for _, l := range layers {
			if l.ID == id {
				// Rendering is the protocol handler's concern; composition
				// only guarantees the route shape.
				http.Error(w, fmt.Sprintf("tile rendering for layer %q is not hosted here", id),
					http.StatusNotImplemented)
				return
			}
		}
		http.NotFound(w, req)
	})
	return nil
}
