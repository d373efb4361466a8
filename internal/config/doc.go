// Package config defines the resolved, typed configuration model consumed by
// validation and composition.
//
// A ResolvedConfig is produced exactly once per load by the resolver and is
// read-only afterwards. Changing configuration means re-running the whole
// pipeline; nothing mutates a ResolvedConfig in place, which is what lets the
// validator, the composer and any number of test fixtures share instances
// without locking or process-wide singletons.
package config
