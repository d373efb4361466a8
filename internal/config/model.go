package config

import (
	"sort"
	"strings"
)

// Environment names accepted in the honua block.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// GlobalSettings holds the singleton `honua` block.
type GlobalSettings struct {
	Title       string `mapstructure:"title"`
	Environment string `mapstructure:"environment"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	BasePath    string `mapstructure:"base_path"`
	LogLevel    string `mapstructure:"log_level"`
}

// PoolSpec is the nested `pool` block of a data source.
type PoolSpec struct {
	MinSize int    `mapstructure:"min_size"`
	MaxSize int    `mapstructure:"max_size"`
	Timeout string `mapstructure:"timeout"`
}

// DataSourceSpec is a `data_source "id"` block.
type DataSourceSpec struct {
	ID         string    `mapstructure:"-"`
	Provider   string    `mapstructure:"provider"`
	Connection string    `mapstructure:"connection"`
	Pool       *PoolSpec `mapstructure:"pool"`
}

// CorsSpec is the nested `cors` block of a service.
type CorsSpec struct {
	AllowAnyOrigin   bool     `mapstructure:"allow_any_origin"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           string   `mapstructure:"max_age"`
}

// ServiceSpec is a `service "id"` block.
type ServiceSpec struct {
	ID           string    `mapstructure:"-"`
	Enabled      bool      `mapstructure:"enabled"`
	Path         string    `mapstructure:"path"`
	MaxFeatures  int       `mapstructure:"max_features"`
	DefaultCount int       `mapstructure:"default_count"`
	Cache        string    `mapstructure:"cache"`
	Cors         *CorsSpec `mapstructure:"cors"`
}

// GeometrySpec is the nested `geometry` block of a layer.
type GeometrySpec struct {
	Column string `mapstructure:"column"`
	Type   string `mapstructure:"type"`
	SRID   int    `mapstructure:"srid"`
}

// FieldsSpec is the nested `fields` block of a layer.
type FieldsSpec struct {
	Include []string `mapstructure:"include"`
	Exclude []string `mapstructure:"exclude"`
}

// LayerSpec is a `layer "id"` block.
type LayerSpec struct {
	ID           string        `mapstructure:"-"`
	Title        string        `mapstructure:"title"`
	DataSource   string        `mapstructure:"data_source"`
	Table        string        `mapstructure:"table"`
	IDField      string        `mapstructure:"id_field"`
	DisplayField string        `mapstructure:"display_field"`
	Services     []string      `mapstructure:"services"`
	Geometry     *GeometrySpec `mapstructure:"geometry"`
	Fields       *FieldsSpec   `mapstructure:"fields"`
}

// CacheSpec is a `cache "id"` block.
type CacheSpec struct {
	ID         string `mapstructure:"-"`
	Provider   string `mapstructure:"provider"`
	Connection string `mapstructure:"connection"`
	MaxEntries int    `mapstructure:"max_entries"`
	TTL        string `mapstructure:"ttl"`
}

// RateLimitSpec is the singleton `rate_limit` block.
type RateLimitSpec struct {
	Enabled           bool   `mapstructure:"enabled"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	Burst             int    `mapstructure:"burst"`
	Store             string `mapstructure:"store"`
}

// Duplicate records a (kind,label) pair that was declared more than once.
// The resolver keeps the last declaration in the maps but never silently: the
// semantic validation phase turns every entry here into an error.
type Duplicate struct {
	Kind     string
	Label    string
	Location string
}

// ResolvedConfig is the fully interpolated, typed configuration model.
// It is built once by the resolver and must not be mutated afterwards.
type ResolvedConfig struct {
	Settings    GlobalSettings
	DataSources map[string]*DataSourceSpec
	Services    map[string]*ServiceSpec
	Layers      map[string]*LayerSpec
	Caches      map[string]*CacheSpec
	RateLimit   *RateLimitSpec
	Duplicates  []Duplicate
}

// New returns an empty ResolvedConfig with all maps initialized.
func New() *ResolvedConfig {
	return &ResolvedConfig{
		DataSources: make(map[string]*DataSourceSpec),
		Services:    make(map[string]*ServiceSpec),
		Layers:      make(map[string]*LayerSpec),
		Caches:      make(map[string]*CacheSpec),
	}
}

// DataSourceIDs returns the declared data source IDs in sorted order.
func (c *ResolvedConfig) DataSourceIDs() []string {
	return sortedKeys(c.DataSources)
}

// ServiceIDs returns the declared service IDs in sorted order.
func (c *ResolvedConfig) ServiceIDs() []string {
	return sortedKeys(c.Services)
}

// LayerIDs returns the declared layer IDs in sorted order.
func (c *ResolvedConfig) LayerIDs() []string {
	return sortedKeys(c.Layers)
}

// CacheIDs returns the declared cache IDs in sorted order.
func (c *ResolvedConfig) CacheIDs() []string {
	return sortedKeys(c.Caches)
}

// EnabledServices returns the enabled services sorted by ID.
func (c *ResolvedConfig) EnabledServices() []*ServiceSpec {
	var out []*ServiceSpec
	for _, id := range c.ServiceIDs() {
		if c.Services[id].Enabled {
			out = append(out, c.Services[id])
		}
	}
	return out
}

// LayersForService returns the layers whose services list references the
// given service ID, sorted by layer ID. References may be dotted
// ("service.wfs") or bare ("wfs").
func (c *ResolvedConfig) LayersForService(serviceID string) []*LayerSpec {
	var out []*LayerSpec
	for _, id := range c.LayerIDs() {
		l := c.Layers[id]
		for _, ref := range l.Services {
			if strings.TrimPrefix(ref, "service.") == serviceID {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
