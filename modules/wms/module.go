// Package wms registers the Web Map Service module.
package wms

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

// RendererKey is the container entry for the WMS layer renderer.
const RendererKey = "wms.renderer"

// Service is the WMS service registration.
type Service struct{}

// New returns the WMS registration.
func New() registry.ServiceRegistration { return &Service{} }

// ServiceID implements registry.ServiceRegistration.
func (s *Service) ServiceID() string { return "wms" }

// Priority implements registry.ServiceRegistration.
func (s *Service) Priority() int { return 20 }

// Renderer lists the renderable layers. Only layers with a geometry block
// can be drawn.
type Renderer struct {
	Layers []*config.LayerSpec
}

// Validate checks the WMS-specific parts of the service block.
func (s *Service) Validate(spec *config.ServiceSpec, cfg *config.ResolvedConfig) *validation.Result {
	res := validation.NewResult()
	loc := "service." + spec.ID
	if spec.Path != "" && !strings.HasPrefix(spec.Path, "/") {
		res.AddError(validation.PhaseServiceConfig, loc+".path", "path must start with '/'")
	}
	for _, l := range cfg.LayersForService(spec.ID) {
		if l.Geometry == nil {
			res.AddWarningWithSuggestion(validation.PhaseServiceConfig, "layer."+l.ID,
				"layer has no geometry block and cannot be rendered by WMS",
				"add a geometry block or unbind the layer from wms")
		}
	}
	return res
}

// ConfigureServices registers the renderer over the geometry-bearing layers.
func (s *Service) ConfigureServices(c *container.Container, spec *config.ServiceSpec, cfg *config.ResolvedConfig) error {
	var renderable []*config.LayerSpec
	for _, l := range cfg.LayersForService(spec.ID) {
		if l.Geometry != nil {
			renderable = append(renderable, l)
		}
	}
	return c.Register(RendererKey, &Renderer{Layers: renderable})
}

// MapEndpoints mounts the WMS capabilities surface.
func (s *Service) MapEndpoints(r chi.Router, spec *config.ServiceSpec, cfg *config.ResolvedConfig) error {
	layers := cfg.LayersForService(spec.ID)
	r.Get("/capabilities", func(w http.ResponseWriter, _ *http.Request) {
		type wmsLayer struct {
			Name string `json:"name"`
			SRID int    `json:"srid,omitempty"`
		}
		var out []wmsLayer
		for _, l := range layers {
			entry := wmsLayer{Name: l.ID}
			if l.Geometry != nil {
				entry.SRID = l.Geometry.SRID
			}
			out = append(out, entry)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"service": "WMS", "layers": out})
	})
	return nil
}
