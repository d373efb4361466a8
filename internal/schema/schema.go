package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Column describes one column of an introspected table.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Table describes one introspected table.
type Table struct {
	Name           string   `json:"name"`
	Columns        []Column `json:"columns"`
	PrimaryKey     string   `json:"primaryKey,omitempty"`
	GeometryColumn string   `json:"geometryColumn,omitempty"`
}

// Column returns the named column, or nil. Matching is case-insensitive to
// follow SQL identifier semantics.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

// Database is the introspected shape of one data source.
type Database struct {
	Provider string  `json:"provider"`
	Tables   []Table `json:"tables"`
}

// Table returns the named table, or nil. Matching is case-insensitive.
func (d *Database) Table(name string) *Table {
	for i := range d.Tables {
		if strings.EqualFold(d.Tables[i].Name, name) {
			return &d.Tables[i]
		}
	}
	return nil
}

// TableNames returns the introspected table names in sorted order.
func (d *Database) TableNames() []string {
	names := make([]string, 0, len(d.Tables))
	for _, t := range d.Tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// Adapter is the per-provider connection contract. Connect must be called
// before Ping or Inspect, and Close releases the connection.
type Adapter interface {
	Provider() string
	Connect(ctx context.Context, connection string) error
	Close() error

	// Ping runs a trivial liveness probe against the backing store.
	Ping(ctx context.Context) error

	// Inspect reads the live schema.
	Inspect(ctx context.Context) (*Database, error)
}

// UnsupportedProviderError is returned by New for providers that have no
// registered adapter (e.g. sqlserver, mysql, oracle in this build).
type UnsupportedProviderError struct {
	Provider string
}

// Error implements the error interface.
func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("provider %q has no registered schema adapter", e.Provider)
}

var adapters = make(map[string]func() Adapter)

// Register adds an adapter factory for a provider name. Registering the same
// provider twice is a programmer error.
func Register(provider string, factory func() Adapter) {
	if _, exists := adapters[provider]; exists {
		panic(fmt.Sprintf("schema adapter for provider %q already registered", provider))
	}
	adapters[provider] = factory
}

// Supported reports whether a provider has a registered adapter.
func Supported(provider string) bool {
	_, ok := adapters[provider]
	return ok
}

// New returns a fresh adapter for the provider, or an
// *UnsupportedProviderError.
func New(provider string) (Adapter, error) {
	factory, ok := adapters[provider]
	if !ok {
		return nil, &UnsupportedProviderError{Provider: provider}
	}
	return factory(), nil
}

// Inspect is the one-shot entry point used by external tooling: connect,
// introspect, close.
func Inspect(ctx context.Context, provider, connection string) (*Database, error) {
	a, err := New(provider)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, connection); err != nil {
		return nil, err
	}
	defer a.Close()
	return a.Inspect(ctx)
}
