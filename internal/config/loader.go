package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const envPrefix = "ANCHORSCAN_"

var tablePrefixRe = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Scan     ScanConfig     `yaml:"scan"`
	Logger   LoggerConfig   `yaml:"logger"`
}

func DefaultConfig() Config {
	return Config{
		Database: DefaultDatabaseConfig(),
		Scan:     DefaultScanConfig(),
		Logger:   DefaultLoggerConfig(),
	}
}

// LoadConfig reads defaults, then the yaml file at path (skipped when path is
// empty), then environment overrides, and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) ApplyEnvOverrides() {
	if v := getenv("DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := getenv("DRIVER"); v != "" {
		c.Database.Driver = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "TABLE_PREFIX"); ok {
		c.Database.TablePrefix = strings.TrimSpace(v)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver)
	}
	if !tablePrefixRe.MatchString(c.Database.TablePrefix) {
		return fmt.Errorf("database.table_prefix: %q may only contain letters, digits and underscores", c.Database.TablePrefix)
	}
	if strings.TrimSpace(c.Scan.BlockName) == "" {
		return fmt.Errorf("scan.block_name must not be empty")
	}
	if c.Scan.BatchSize <= 0 {
		return fmt.Errorf("scan.batch_size must be positive, got %d", c.Scan.BatchSize)
	}
	if c.Scan.WindowDays < 0 {
		return fmt.Errorf("scan.window_days must not be negative, got %d", c.Scan.WindowDays)
	}
	if c.Scan.Retry.Backoff < 0 {
		return fmt.Errorf("scan.retry.backoff must not be negative")
	}
	return nil
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}
