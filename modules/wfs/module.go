// Package wfs registers the Web Feature Service module. The protocol
// implementation lives outside this repository; this registration wires the
// feature store for the layers bound to the service and exposes the
// capabilities surface the host composes against.
package wfs

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/honua-io/honua/internal/config"
	"github.com/honua-io/honua/internal/container"
	"github.com/honua-io/honua/internal/registry"
	"github.com/honua-io/honua/internal/validation"
)

// StoreKey is the container entry under which the WFS layer store registers.
const StoreKey = "wfs.store"

// Service is the WFS service registration.
type Service struct{}

// New returns the WFS registration.
func New() registry.ServiceRegistration { return &Service{} }

// ServiceID implements registry.ServiceRegistration.
func (s *Service) ServiceID() string { return "wfs" }

// Priority implements registry.ServiceRegistration.
func (s *Service) Priority() int { return 10 }

// Store holds the layers served over WFS, in composition order.
type Store struct {
	Layers []*config.LayerSpec
	Limit  int
}

// Validate checks the WFS-specific parts of the service block.
func (s *Service) Validate(spec *config.ServiceSpec, cfg *config.ResolvedConfig) *validation.Result {
	res := validation.NewResult()
	loc := "service." + spec.ID
	if spec.Path != "" && !strings.HasPrefix(spec.Path, "/") {
		res.AddError(validation.PhaseServiceConfig, loc+".path", "path must start with '/'")
	}
	if spec.MaxFeatures > 100000 {
		res.AddWarningWithSuggestion(validation.PhaseServiceConfig, loc+".max_features",
			"max_features above 100000 defeats response paging",
			"lower max_features or rely on paging")
	}
	return res
}

// ConfigureServices registers the WFS feature store.
func (s *Service) ConfigureServices(c *container.Container, spec *config.ServiceSpec, cfg *config.ResolvedConfig) error {
	limit := spec.MaxFeatures
	if limit == 0 {
		limit = 1000
	}
	return c.Register(StoreKey, &Store{
		Layers: cfg.LayersForService(spec.ID),
		Limit:  limit,
	})
}

// MapEndpoints mounts the WFS capabilities surface.
func (s *Service) MapEndpoints(r chi.Router, spec *config.ServiceSpec, cfg *config.ResolvedConfig) error {
	layers := cfg.LayersForService(spec.ID)

	r.Get("/capabilities", func(w http.ResponseWriter, _ *http.Request) {
		type featureType struct {
			Name  string `json:"name"`
			Title string `json:"title,omitempty"`
		}
		var types []featureType
		for _, l := range layers {
			types = append(types, featureType{Name: l.ID, Title: l.Title})
		}
		writeJSON(w, map[string]any{
			"service":      "WFS",
			"featureTypes": types,
		})
	})
	r.Get("/layers/{layer}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "layer")
		for _, l := range layers {
			if l.ID == id {
				writeJSON(w, l)
				return
			}
		}
		http.NotFound(w, req)
	})
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
