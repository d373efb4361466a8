package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/honua-io/honua/internal/config"
	"github.com/honua-io/honua/internal/lexer"
)

// jsonDocument mirrors the ResolvedConfig shape for the JSON compatibility
// format. JSON sources are already resolved: no env interpolation or
// variable substitution happens here.
type jsonDocument struct {
	Honua       config.GlobalSettings              `mapstructure:"honua"`
	DataSources map[string]*config.DataSourceSpec  `mapstructure:"data_sources"`
	Services    map[string]*config.ServiceSpec     `mapstructure:"services"`
	Layers      map[string]*config.LayerSpec       `mapstructure:"layers"`
	Caches      map[string]*config.CacheSpec       `mapstructure:"caches"`
	RateLimit   *config.RateLimitSpec              `mapstructure:"rate_limit"`
}

func loadJSON(ctx context.Context, src []byte, filename string, opts Options) (*Loader, error) {
	var raw map[string]any
	if err := json.Unmarshal(src, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}

	var doc jsonDocument
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}

	cfg := config.New()
	cfg.Settings = doc.Honua
	for id, ds := range doc.DataSources {
		ds.ID = id
		cfg.DataSources[id] = ds
	}
	for id, svc := range doc.Services {
		svc.ID = id
		cfg.Services[id] = svc
	}
	for id, l := range doc.Layers {
		l.ID = id
		cfg.Layers[id] = l
	}
	for id, c := range doc.Caches {
		c.ID = id
		cfg.Caches[id] = c
	}
	cfg.RateLimit = doc.RateLimit

	return finishLoad(ctx, cfg, filename, opts), nil
}

func isLexError(err error) bool {
	var lexErr *lexer.LexError
	return errors.As(err, &lexErr)
}
