// Package config loads the ingestion run configuration from a YAML
// file, applies defaults, and validates it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete run configuration.
type Config struct {
	Service struct {
		Name       string `yaml:"name"`
		HealthPort int    `yaml:"health_port"` // 0 disables the health server
	} `yaml:"service"`

	Source struct {
		ArchiveURL string `yaml:"archive_url"`
		DataDir    string `yaml:"data_dir"`
		Download   bool   `yaml:"download"` // fetch the archive before ingesting
	} `yaml:"source"`

	Database struct {
		Path  string `yaml:"path"`
		Reset bool   `yaml:"reset"` // remove an existing database file before the run
	} `yaml:"database"`

	Ingest struct {
		BatchSize int  `yaml:"batch_size"` // records per transaction; 1 = per-file transactions
		Limit     int  `yaml:"limit"`      // process only the first N files; 0 = all
		FailFast  bool `yaml:"fail_fast"`  // stop the run on the first load failure
	} `yaml:"ingest"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json or console
	} `yaml:"logging"`
}

// Load reads and parses the YAML config at path, fills defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = "z-odi-ingest"
	}
	if c.Source.ArchiveURL == "" {
		c.Source.ArchiveURL = "https://cricsheet.org/downloads/odis_json.zip"
	}
	if c.Source.DataDir == "" {
		c.Source.DataDir = "data"
	}
	if c.Ingest.BatchSize == 0 {
		c.Ingest.BatchSize = 1
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Ingest.BatchSize < 1 || c.Ingest.BatchSize > 10000 {
		return fmt.Errorf("ingest.batch_size must be between 1 and 10000, got: %d", c.Ingest.BatchSize)
	}
	if c.Ingest.Limit < 0 {
		return fmt.Errorf("ingest.limit must be >= 0, got: %d", c.Ingest.Limit)
	}
	if c.Source.Download && c.Source.ArchiveURL == "" {
		return fmt.Errorf("source.archive_url is required when source.download is enabled")
	}
	if c.Service.HealthPort != 0 && (c.Service.HealthPort < 1024 || c.Service.HealthPort > 65535) {
		return fmt.Errorf("service.health_port must be between 1024 and 65535, got: %d", c.Service.HealthPort)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be 'json' or 'console', got: %s", c.Logging.Format)
	}
	return nil
}
