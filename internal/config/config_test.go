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

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 18080, cfg.Server.Port)
	assert.Equal(t, "rf.model", cfg.Server.ModelPath)
}

func TestLoadPortEnv(t *testing.T) {
	t.Setenv("PORT", "9000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8123\n  model_path: media.model\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, "media.model", cfg.Server.ModelPath)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}
