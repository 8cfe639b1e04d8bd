package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 50, cfg.Import.CeilingFactor)
	assert.Equal(t, 64, cfg.Import.DefaultVelocity)
	assert.Equal(t, ":8080", cfg.Serve.Addr)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoreline.yaml")
	content := `
import:
  parallel: true
  default_velocity: 90
log:
  level: debug
dynamo:
  table: scores-test
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv(EnvVar, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Import.Parallel)
	assert.Equal(t, 90, cfg.Import.DefaultVelocity)
	assert.Equal(t, 50, cfg.Import.CeilingFactor, "unset fields keep their defaults")
	assert.Equal(t, "scores-test", cfg.Dynamo.Table)
	assert.Equal(t, "http://localhost:8000", cfg.Dynamo.Endpoint)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"velocity": "import:\n  default_velocity: 300\n",
		"ceiling":  "import:\n  ceiling_factor: 0\n",
		"level":    "log:\n  level: loud\n",
		"syntax":   "import: [\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
}
