package config

import "time"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	MaxConns    int32  `yaml:"max_conns"`
	TablePrefix string `yaml:"table_prefix"`
}

type ScanConfig struct {
	BlockName  string      `yaml:"block_name"`
	BatchSize  int         `yaml:"batch_size"`
	WindowDays int         `yaml:"window_days"`
	Retry      RetryConfig `yaml:"retry"`
}

// RetryConfig bounds re-fetching of a single failed batch. MaxRetries 0 makes
// every batch failure fatal.
type RetryConfig struct {
	MaxRetries uint64        `yaml:"max_retries"`
	Backoff    time.Duration `yaml:"backoff"`
}

type LoggerConfig struct {
	Level      string `yaml:"level"`
	FilePath   string `yaml:"file_path"`
	Production bool   `yaml:"production"`
}

func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:      DriverPostgres,
		MaxConns:    4,
		TablePrefix: "wp_",
	}
}

func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		BlockName:  "stylized-anchor-link",
		BatchSize:  5000,
		WindowDays: 30,
		Retry: RetryConfig{
			MaxRetries: 0,
			Backoff:    200 * time.Millisecond,
		},
	}
}

func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level: "info",
	}
}
