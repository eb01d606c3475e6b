package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendDir, cfg.Backend)
	assert.Equal(t, []string{"wildcards"}, cfg.Wildcards)
	assert.Equal(t, filepath.Join("wildcards", DefaultPersistName), cfg.PersistFile)
	assert.Equal(t, "m", cfg.Root)
	assert.Equal(t, 1000, cfg.MaxIterations)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wildprompt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: sqlite
wildcards: [a, b]
max_iterations: 50
log:
  level: debug
  format: json
`), 0o644))

	t.Setenv("WILDPROMPT_DB", "/tmp/x.db")
	t.Setenv("WILDPROMPT_WATCH", "true")
	t.Setenv("WILDPROMPT_ROOT", "mine")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, []string{"a", "b"}, cfg.Wildcards)
	assert.Equal(t, "/tmp/x.db", cfg.Database)
	assert.Equal(t, 50, cfg.MaxIterations)
	assert.True(t, cfg.Watch)
	assert.Equal(t, "mine", cfg.Root)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("WILDPROMPT_MAX_ITERATIONS", "many")
	_, err := Load("")
	assert.ErrorContains(t, err, "MAX_ITERATIONS")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"backend", func(c *Config) { c.Backend = "redis" }},
		{"iterations", func(c *Config) { c.MaxIterations = -1 }},
		{"root", func(c *Config) { c.Root = "/m" }},
		{"level", func(c *Config) { c.Log.Level = "loud" }},
		{"format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.SetDefaults()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("WILDPROMPT_BACKEND=bunt\n"), 0o644))
	t.Setenv("WILDPROMPT_BACKEND", "")
	os.Unsetenv("WILDPROMPT_BACKEND")

	require.NoError(t, LoadEnvFiles(path, filepath.Join(t.TempDir(), "missing.env")))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendBunt, cfg.Backend)
	assert.Equal(t, "wildprompt.bunt", cfg.Database)
}
