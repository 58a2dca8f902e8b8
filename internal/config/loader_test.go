package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "wp_", cfg.Database.TablePrefix)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.Equal(t, "stylized-anchor-link", cfg.Scan.BlockName)
	assert.Equal(t, 5000, cfg.Scan.BatchSize)
	assert.Equal(t, 30, cfg.Scan.WindowDays)
	assert.Equal(t, uint64(0), cfg.Scan.Retry.MaxRetries)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigEmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("ANCHORSCAN_DSN", "")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultScanConfig(), cfg.Scan)
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  dsn: /tmp/posts.db
  table_prefix: blog_
scan:
  block_name: read-more
  batch_size: 250
  retry:
    max_retries: 3
    backoff: 50ms
logger:
  level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/posts.db", cfg.Database.DSN)
	assert.Equal(t, "blog_", cfg.Database.TablePrefix)
	assert.Equal(t, int32(4), cfg.Database.MaxConns, "unset keys keep defaults")
	assert.Equal(t, "read-more", cfg.Scan.BlockName)
	assert.Equal(t, 250, cfg.Scan.BatchSize)
	assert.Equal(t, 30, cfg.Scan.WindowDays)
	assert.Equal(t, uint64(3), cfg.Scan.Retry.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Scan.Retry.Backoff)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "database:\n  dsn: from-file\n")
	t.Setenv("ANCHORSCAN_DSN", "from-env")
	t.Setenv("ANCHORSCAN_DRIVER", "SQLite")
	t.Setenv("ANCHORSCAN_TABLE_PREFIX", "")
	t.Setenv("ANCHORSCAN_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.DSN)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "", cfg.Database.TablePrefix)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"prefix injection", func(c *Config) { c.Database.TablePrefix = `wp_"; DROP` }},
		{"empty block", func(c *Config) { c.Scan.BlockName = "  " }},
		{"zero batch", func(c *Config) { c.Scan.BatchSize = 0 }},
		{"negative window", func(c *Config) { c.Scan.WindowDays = -1 }},
		{"negative backoff", func(c *Config) { c.Scan.Retry.Backoff = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
