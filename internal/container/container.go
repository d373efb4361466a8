// Package container provides the minimal service container handed to
// registrations during composition. Entries are write-once: composition is
// strictly ordered, so a later service may resolve what an earlier one
// registered, but nothing is ever replaced behind a consumer's back.
package container

import "fmt"

// Container is a name-keyed service store. It is not safe for concurrent
// writes; composition is single-threaded by design, and after composition
// the container is read-only.
type Container struct {
	entries map[string]any
}

// New returns an empty container.
func New() *Container {
	return &Container{entries: make(map[string]any)}
}

// Register stores a service under a unique name.
func (c *Container) Register(name string, service any) error {
	if _, exists := c.entries[name]; exists {
		return fmt.Errorf("service %q is already registered in the container", name)
	}
	c.entries[name] = service
	return nil
}

// Resolve returns the service registered under name.
func (c *Container) Resolve(name string) (any, bool) {
	s, ok := c.entries[name]
	return s, ok
}

// MustResolve returns the service registered under name and panics when it
// is absent. Use it only for dependencies guaranteed by composition order.
func (c *Container) MustResolve(name string) any {
	s, ok := c.entries[name]
	if !ok {
		panic(fmt.Sprintf("service %q is not registered in the container", name))
	}
	return s
}

// Len returns the number of registered services.
func (c *Container) Len() int {
	return len(c.entries)
}
