// Package features registers the OGC API Features service module.
package features

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/honua-io/honua/internal/config"
	"github.com/honua-io/honua/internal/container"
	"github.com/honua-io/honua/internal/registry"
	"github.com/honua-io/honua/internal/validation"
)

// CollectionsKey is the container entry for the collection catalog.
const CollectionsKey = "features.collections"

// Service is the OGC API Features registration.
type Service struct{}

// New returns the features registration.
func New() registry.ServiceRegistration { return &Service{} }

// ServiceID implements registry.ServiceRegistration.
func (s *Service) ServiceID() string { return "features" }

// Priority implements registry.ServiceRegistration.
func (s *Service) Priority() int { return 40 }

// Catalog is the collection set served by the API.
type Catalog struct {
	Collections []*config.LayerSpec
	PageLimit   int
}

// Validate checks paging limits.
func (s *Service) Validate(spec *config.ServiceSpec, cfg *config.ResolvedConfig) *validation.Result {
	res := validation.NewResult()
	if spec.DefaultCount > 0 && spec.MaxFeatures > 0 && spec.DefaultCount > spec.MaxFeatures {
		res.AddError(validation.PhaseServiceConfig, "service."+spec.ID+".default_count",
			"default page size exceeds max_features")
	}
	return res
}

// ConfigureServices registers the collection catalog.
func (s *Service) ConfigureServices(c *container.Container, spec *config.ServiceSpec, cfg *config.ResolvedConfig) error {
	limit := spec.DefaultCount
	if limit == 0 {
		limit = 100
	}
	return c.Register(CollectionsKey, &Catalog{
		Collections: cfg.LayersForService(spec.ID),
		PageLimit:   limit,
	})
}

// MapEndpoints mounts the collections surface.
func (s *Service) MapEndpoints(r chi.Router, spec *config.ServiceSpec, cfg *config.ResolvedConfig) error {
	layers := cfg.LayersForService(spec.ID)
	r.Get("/collections", func(w http.ResponseWriter, _ *http.Request) {
		type collection struct {
			ID    string `json:"id"`
			Title string `json:"title,omitempty"`
		}
		var out []collection
		for _, l := range layers {
			out = append(out, collection{ID: l.ID, Title: l.Title})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"collections": out})
	})
	r.Get("/collections/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		for _, l := range layers {
			if l.ID == id {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(l)
				return
			}
		}
		http.NotFound(w, req)
	})
	return nil
}
