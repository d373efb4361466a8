package wms

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/honua-io/honua/internal/config"
	"github.com/honua-io/honua/internal/container"
)

func wmsConfig() *config.ResolvedConfig {
	cfg := config.New()
	cfg.Services["wms"] = &config.ServiceSpec{ID: "wms", Enabled: true}
	cfg.Layers["streets"] = &config.LayerSpec{
		ID: "streets", Table: "streets", IDField: "id",
		Services: []string{"wms"},
		Geometry: &config.GeometrySpec{Column: "geom", Type: "LineString", SRID: 4326},
	}
	cfg.Layers["stats"] = &config.LayerSpec{
		ID: "stats", Table: "stats", IDField: "id",
		Services: []string{"wms"},
	}
	return cfg
}

func TestValidate_GeometrylessLayerWarns(t *testing.T) {
	t.Parallel()

	svc := &Service{}
	cfg := wmsConfig()
	res := svc.Validate(cfg.Services["wms"], cfg)
	require.True(t, res.Valid())
	require.Len(t, res.Warnings, 1)
	require.Equal(t, "layer.stats", res.Warnings[0].Location)
	require.Contains(t, res.Warnings[0].Message, "cannot be rendered by WMS")
}

func TestConfigureServices_OnlyGeometryLayersRenderable(t *testing.T) {
	t.Parallel()

	svc := &Service{}
	cfg := wmsConfig()
	c := container.New()
	require.NoError(t, svc.ConfigureServices(c, cfg.Services["wms"], cfg))

	renderer := c.MustResolve(RendererKey).(*Renderer)
	require.Len(t, renderer.Layers, 1)
	require.Equal(t, "streets", renderer.Layers[0].ID)
}
