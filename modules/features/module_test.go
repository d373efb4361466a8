package features

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/honua-io/honua/internal/config"
	"github.com/honua-io/honua/internal/container"
)

func featuresConfig() *config.ResolvedConfig {
	cfg := config.New()
	cfg.Services["features"] = &config.ServiceSpec{ID: "features", Enabled: true}
	cfg.Layers["streets"] = &config.LayerSpec{
		ID: "streets", Title: "City Streets", Table: "streets",
		IDField: "id", Services: []string{"features"},
	}
	cfg.Layers["parcels"] = &config.LayerSpec{
		ID: "parcels", Table: "parcels",
		IDField: "id", Services: []string{"service.features"},
	}
	return cfg
}

func TestValidate_DefaultCountAgainstMaxFeatures(t *testing.T) {
	t.Parallel()

	svc := &Service{}
	res := svc.Validate(&config.ServiceSpec{ID: "features", MaxFeatures: 100, DefaultCount: 500}, featuresConfig())
	require.False(t, res.Valid())
	require.Equal(t, "service.features.default_count", res.Errors[0].Location)

	res = svc.Validate(&config.ServiceSpec{ID: "features", MaxFeatures: 1000, DefaultCount: 50}, featuresConfig())
	require.True(t, res.Valid())
}

func TestConfigureServices_CatalogAndPageLimit(t *testing.T) {
	t.Parallel()

	svc := &Service{}
	cfg := featuresConfig()
	c := container.New()
	require.NoError(t, svc.ConfigureServices(c, cfg.Services["features"], cfg))

	catalog := c.MustResolve(CollectionsKey).(*Catalog)
	require.Len(t, catalog.Collections, 2)
	require.Equal(t, 100, catalog.PageLimit)
}

func TestMapEndpoints_Collections(t *testing.T) {
	t.Parallel()

	svc := &Service{}
	cfg := featuresConfig()
	r := chi.NewRouter()
	require.NoError(t, svc.MapEndpoints(r, cfg.Services["features"], cfg))

	ts := httptest.NewServer(r)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/collections")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Collections []struct {
			ID string `json:"id"`
		} `json:"collections"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Collections, 2)
	// Sorted by layer ID.
	require.Equal(t, "parcels", body.Collections[0].ID)
	require.Equal(t, "streets", body.Collections[1].ID)

	resp, err = http.Get(ts.URL + "/collections/streets")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/collections/rivers")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
