// Package registry holds the contract between the composition engine and the
// pluggable service modules, together with the static discovery mechanism
// that collects them.
//
// Discovery is a compile-time-checked list of registrations supplied by the
// deployment target, not a reflection scan: which services exist in a binary
// is decided where the binary is assembled, and the declared configuration
// decides which of them compose.
package registry

import (
	"fmt"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/honua-io/honua/internal/config"
	"github.com/honua-io/honua/internal/container"
	"github.com/honua-io/honua/internal/validation"
)

// ServiceRegistration is implemented by every composable service module.
type ServiceRegistration interface {
	// ServiceID matches the label of the `service` block that enables this
	// module.
	ServiceID() string

	// Priority orders composition; lower runs earlier, ties break by
	// ServiceID. The order is load-bearing: later services may depend on
	// container state registered by earlier ones.
	Priority() int

	// Validate checks the service's own configuration. Issues come back
	// tagged with the service-config phase.
	Validate(spec *config.ServiceSpec, cfg *config.ResolvedConfig) *validation.Result

	// ConfigureServices registers this module's services into the container.
	ConfigureServices(c *container.Container, spec *config.ServiceSpec, cfg *config.ResolvedConfig) error

	// MapEndpoints mounts this module's routes. It is only called after
	// ConfigureServices succeeded for the same registration.
	MapEndpoints(r chi.Router, spec *config.ServiceSpec, cfg *config.ResolvedConfig) error
}

// DiscoveryError is fatal to process start: the set of compiled-in service
// registrations is itself broken.
type DiscoveryError struct {
	ServiceID string
	Message   string
}

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("service discovery failed for %q: %s", e.ServiceID, e.Message)
}

// Registry is the discovered ServiceID -> registration map. It is populated
// once at startup and read-only afterwards.
type Registry struct {
	entries map[string]ServiceRegistration
}

// Discover collects the given registrations into a registry. A duplicate
// ServiceID or an empty one is a *DiscoveryError.
func Discover(regs ...ServiceRegistration) (*Registry, error) {
	r := &Registry{entries: make(map[string]ServiceRegistration, len(regs))}
	for _, reg := range regs {
		id := reg.ServiceID()
		if id == "" {
			return nil, &DiscoveryError{ServiceID: id, Message: "registration has an empty ServiceID"}
		}
		if _, exists := r.entries[id]; exists {
			return nil, &DiscoveryError{ServiceID: id, Message: "duplicate service registration"}
		}
		r.entries[id] = reg
	}
	return r, nil
}

// Lookup returns the registration for a service ID.
func (r *Registry) Lookup(id string) (ServiceRegistration, bool) {
	reg, ok := r.entries[id]
	return reg, ok
}

// IDs returns the discovered service IDs in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of discovered registrations.
func (r *Registry) Len() int {
	return len(r.entries)
}
