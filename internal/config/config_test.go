package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "console", cfg.Oracle.Provider)
	assert.Equal(t, "faultline.db", cfg.DB.Path)
	assert.Zero(t, cfg.Session.MaxQueries)
	assert.False(t, cfg.Trace.AllowOrphans)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faultline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
trace:
  path: run.jsonl
  allow_orphans: true
session:
  max_queries: 40
  batch_judge: true
oracle:
  provider: gemini
  model: gemini-2.5-pro
db:
  path: runs.db
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "run.jsonl", cfg.Trace.Path)
	assert.True(t, cfg.Trace.AllowOrphans)
	assert.Equal(t, 40, cfg.Session.MaxQueries)
	assert.True(t, cfg.Session.BatchJudge)
	assert.Equal(t, "gemini", cfg.Oracle.Provider)
	assert.Equal(t, "gemini-2.5-pro", cfg.Oracle.Model)
	assert.Equal(t, "runs.db", cfg.DB.Path)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faultline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
oracle:
  provider: console
session:
  max_queries: 10
`), 0o644))

	t.Setenv("FAULTLINE_API_KEY", "secret")
	t.Setenv("FAULTLINE_ORACLE", "gemini")
	t.Setenv("FAULTLINE_MAX_QUERIES", "25")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Oracle.APIKey)
	assert.Equal(t, "gemini", cfg.Oracle.Provider)
	assert.Equal(t, 25, cfg.Session.MaxQueries)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faultline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trace: [not: a: mapping"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
