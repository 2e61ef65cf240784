package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Placement.K)
	assert.Equal(t, int64(42), cfg.Placement.Seed)
	assert.Equal(t, 100, cfg.Placement.MaxIterations)
	assert.Equal(t, "parallel", cfg.Distance.Backend)
	assert.Positive(t, cfg.Distance.Workers)
	assert.Equal(t, "FRA", cfg.RefData.Dataset)
	assert.Equal(t, "France", cfg.RefData.Country)
	assert.Equal(t, CitiesOverpass, cfg.RefData.CitiesSource)
	assert.InDelta(t, 1.0, cfg.RefData.OverpassRPS, 0.001)
	assert.Equal(t, 3, cfg.RefData.RetryAttempts)
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, "relay-cache.db", cfg.Cache.Path)
	assert.Equal(t, "relay:", cfg.Cache.RedisPrefix)
	assert.Empty(t, cfg.Store.DatabaseURL)
	assert.Equal(t, int32(4), cfg.Store.MaxConns)
	assert.False(t, cfg.Metrics.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yml := `
log:
  level: debug
  format: console
placement:
  k: 3
  seed: 7
refdata:
  cities_source: csv
  cities_csv: cities.csv
  cities_charset: iso-8859-1
cache:
  driver: redis
  redis_addr: cache:6379
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 3, cfg.Placement.K)
	assert.Equal(t, int64(7), cfg.Placement.Seed)
	assert.Equal(t, CitiesCSV, cfg.RefData.CitiesSource)
	assert.Equal(t, "cities.csv", cfg.RefData.CitiesCSV)
	assert.Equal(t, "iso-8859-1", cfg.RefData.CitiesCharset)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
	// Defaults still apply for unset values
	assert.Equal(t, 100, cfg.Placement.MaxIterations)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("placement:\n  k: 3\n"), 0o644))
	t.Setenv("RELAY_PLACEMENT_K", "12")
	t.Setenv("RELAY_STORE_DATABASE_URL", "postgres://localhost/relay")
	t.Setenv("RELAY_DISTANCE_BACKEND", "reference")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Placement.K)
	assert.Equal(t, "postgres://localhost/relay", cfg.Store.DatabaseURL)
	assert.Equal(t, "reference", cfg.Distance.Backend)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RELAY_CACHE_REDIS_PASSWORD=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("RELAY_CACHE_REDIS_PASSWORD") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Cache.RedisPassword)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("placement: [k\n"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero k", func(c *Config) { c.Placement.K = 0 }, "placement.k"},
		{"zero iterations", func(c *Config) { c.Placement.MaxIterations = 0 }, "max_iterations"},
		{"bad backend", func(c *Config) { c.Distance.Backend = "gpu" }, "distance.backend"},
		{"bad driver", func(c *Config) { c.Cache.Driver = "mongo" }, "cache.driver"},
		{"sqlite without path", func(c *Config) { c.Cache.Path = "" }, "cache.path"},
		{"redis without addr", func(c *Config) { c.Cache.Driver = "redis"; c.Cache.RedisAddr = "" }, "redis_addr"},
		{"bad cities source", func(c *Config) { c.RefData.CitiesSource = "wiki" }, "cities_source"},
		{"csv without file", func(c *Config) { c.RefData.CitiesSource = CitiesCSV }, "cities_csv"},
		{"overpass without country", func(c *Config) { c.RefData.Country = "" }, "refdata.country"},
		{"no boundary", func(c *Config) { c.RefData.BoundaryPath = "" }, "boundary"},
		{"no dataset", func(c *Config) { c.RefData.Dataset = "" }, "dataset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	cfg := Default()
	cfg.Cache.Driver = "memory"
	cfg.Cache.Path = ""
	assert.NoError(t, cfg.Validate())
}

func TestDefaultDecodesEveryBuiltIn(t *testing.T) {
	var cfg *Config
	require.NotPanics(t, func() { cfg = Default() })
	assert.Equal(t, 10, cfg.Placement.K)
	assert.NotEmpty(t, cfg.RefData.Dataset)
}

func TestDefaultIgnoresEnvironment(t *testing.T) {
	t.Setenv("RELAY_PLACEMENT_K", "99")
	assert.Equal(t, 10, Default().Placement.K)
}

func TestWriteExample(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExample(&buf))

	assert.Contains(t, buf.String(), "placement:")
	assert.Contains(t, buf.String(), "cities_source: overpass")

	var got Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *Default(), got)
}

func TestWriteExampleRoundTripsThroughLoad(t *testing.T) {
	dir := chdirTemp(t)

	f, err := os.Create(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	require.NoError(t, WriteExample(f))
	require.NoError(t, f.Close())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().RefData, cfg.RefData)
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LogConfig
		wantErr bool
	}{
		{"json info", LogConfig{Level: "info", Format: "json"}, false},
		{"console debug", LogConfig{Level: "debug", Format: "console"}, false},
		{"bad level", LogConfig{Level: "loud", Format: "json"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, zap.L())
		})
	}
}
