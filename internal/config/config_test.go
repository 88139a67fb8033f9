package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("TECP_TEST_DB_URL", "postgres://example/tecp")

	dir := t.TempDir()
	path := filepath.Join(dir, "logd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  url: ${TECP_TEST_DB_URL}
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://example/tecp", cfg.Database.URL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8443", cfg.Listen)
	assert.Equal(t, "DEFAULT", cfg.DefaultProfile)
}

func TestLoadRejectsMissingDatabaseURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`logLevel: debug`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  url: postgres://x
defaultProfile: NOPE
`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
