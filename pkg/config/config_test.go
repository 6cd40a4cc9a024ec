package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"LEXREF_STORE_DRIVER",
	"LEXREF_LIBRARY_PATH",
	"LEXREF_DSN",
	"LEXREF_CACHE_SIZE",
	"LEXREF_ADDR",
	"LEXREF_LOG_LEVEL",
	"LOG_LEVEL",
}

// isolate runs the test from an empty directory with no LEXREF_* variables
// so a stray .env file or shell export cannot leak in.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lexref.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
store:
  driver: postgres
  dsn: postgres://localhost/lexref
  cache_size: 16
server:
  addr: 127.0.0.1:9000
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/lexref", cfg.Store.DSN)
	assert.Equal(t, 16, cfg.Store.CacheSize)
	assert.Equal(t, DefaultLibraryPath, cfg.Store.LibraryPath)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "store:\n  library_path: /from/yaml\n")

	t.Setenv("LEXREF_LIBRARY_PATH", "/from/env")
	t.Setenv("LEXREF_CACHE_SIZE", "0")
	t.Setenv("LEXREF_ADDR", "9090")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Store.LibraryPath)
	assert.Equal(t, 0, cfg.Store.CacheSize)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)

	t.Setenv("LEXREF_LOG_LEVEL", "error")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("LEXREF_STORE_DRIVER=postgres\nLEXREF_DSN=postgres://dotenv/lexref\n"), 0644))
	// godotenv never overrides variables that are already set, even to "".
	require.NoError(t, os.Unsetenv("LEXREF_STORE_DRIVER"))
	require.NoError(t, os.Unsetenv("LEXREF_DSN"))
	t.Cleanup(func() {
		os.Unsetenv("LEXREF_STORE_DRIVER")
		os.Unsetenv("LEXREF_DSN")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://dotenv/lexref", cfg.Store.DSN)
}

func TestLoadErrors(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "store: [unclosed"))
	assert.Error(t, err)

	t.Setenv("LEXREF_CACHE_SIZE", "lots")
	_, err = Load("")
	assert.ErrorContains(t, err, "LEXREF_CACHE_SIZE")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }, "unknown store driver"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = DriverPostgres }, "store.dsn"},
		{"library without path", func(c *Config) { c.Store.LibraryPath = "" }, "store.library_path"},
		{"negative cache", func(c *Config) { c.Store.CacheSize = -1 }, "cache_size"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
