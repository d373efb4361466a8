// Package schema provides the database connection abstraction shared by the
// Runtime validation phase and external introspection tooling.
//
// Each supported provider registers an Adapter factory in a static map. An
// adapter can ping its backing store (the liveness probe) and introspect the
// live schema into a provider-agnostic Database model: tables, columns,
// primary keys and geometry columns. Providers without an adapter are
// reported as unsupported rather than probed blindly.
package schema
