// Package testutil provides the shared fixtures used by package tests:
// temp-file configuration sources and a parse+resolve shortcut.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/honua-io/honua/internal/config"
	"github.com/honua-io/honua/internal/parser"
	"github.com/honua-io/honua/internal/resolver"
)

// WriteConfig writes source into a fresh temp directory and returns the file
// path. The file is cleaned up with the test.
func WriteConfig(t *testing.T, name, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o600))
	return path
}

// MustResolve parses and resolves source, failing the test on any error.
// env may be nil for sources without env() calls.
func MustResolve(t *testing.T, source string, env map[string]string) *config.ResolvedConfig {
	t.Helper()
	doc, err := parser.Parse([]byte(source), "test.hcl")
	require.NoError(t, err)
	cfg, errs := resolver.Resolve(doc, env)
	require.Empty(t, errs)
	require.NotNil(t, cfg)
	return cfg
}
