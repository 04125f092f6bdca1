package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/memgraph/memgraph/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "storageConnection: memory://\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "markdown", cfg.Docs.Format)
	assert.Equal(t, "./docs", cfg.Docs.OutputDir)
	assert.Equal(t, "fail", cfg.Sync.ConflictStrategy)
	assert.Equal(t, 1, cfg.Scan.Remote.Depth)
}

func TestLoad_DecodesNestedScanMappings(t *testing.T) {
	path := writeConfig(t, `
storageConnection: bolt://localhost:7687
docs:
  outputDir: ./out
  format: mdx
sync:
  conflictStrategy: merge
scan:
  include: ["**/*.go"]
  languages: ["go"]
  mappings:
    - artifactKind: function
      label: Function
      properties:
        name:
          field: name
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mdx", cfg.Docs.Format)
	assert.Equal(t, "merge", cfg.Sync.ConflictStrategy)
	require.Len(t, cfg.Scan.Mappings, 1)
	assert.Equal(t, "Function", cfg.Scan.Mappings[0].Label)
	assert.Equal(t, "name", cfg.Scan.Mappings[0].Properties["name"].Field)
}

func TestLoad_RejectsUnknownConflictStrategy(t *testing.T) {
	path := writeConfig(t, "storageConnection: memory://\nsync:\n  conflictStrategy: yolo\n")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsMissingStorageConnection(t *testing.T) {
	path := writeConfig(t, "docs:\n  format: markdown\n")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "storageConnection: memory://\nsync:\n  conflictStrategy: fail\n")
	t.Setenv("MEMGRAPH_SYNC_CONFLICTSTRATEGY", "docs-wins")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "docs-wins", cfg.Sync.ConflictStrategy)
}
