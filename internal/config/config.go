// Package config loads and finalizes the Courier service configuration from
// TOML files and environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/courier/pkg/database"
	"github.com/JaimeStill/courier/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvCourierEnv             = "COURIER_ENV"
	EnvCourierShutdownTimeout = "COURIER_SHUTDOWN_TIMEOUT"
	EnvCourierVersion         = "COURIER_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "COURIER_DB_HOST",
	Port:            "COURIER_DB_PORT",
	Name:            "COURIER_DB_NAME",
	User:            "COURIER_DB_USER",
	Password:        "COURIER_DB_PASSWORD",
	SSLMode:         "COURIER_DB_SSL_MODE",
	MaxOpenConns:    "COURIER_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "COURIER_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "COURIER_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "COURIER_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Enabled:          "COURIER_STORAGE_ENABLED",
	ContainerName:    "COURIER_STORAGE_CONTAINER_NAME",
	ConnectionString: "COURIER_STORAGE_CONNECTION_STRING",
}

// Config is the root configuration for the Courier service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Paperless       PaperlessConfig `toml:"paperless"`
	OCR             OCRConfig       `toml:"ocr"`
	Analysis        AnalysisConfig  `toml:"analysis"`
	Pipeline        PipelineConfig  `toml:"pipeline"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the COURIER_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvCourierEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Paperless.Merge(&overlay.Paperless)
	c.OCR.Merge(&overlay.OCR)
	c.Analysis.Merge(&overlay.Analysis)
	c.Pipeline.Merge(&overlay.Pipeline)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Paperless.Finalize(); err != nil {
		return fmt.Errorf("paperless: %w", err)
	}
	if err := c.OCR.Finalize(); err != nil {
		return fmt.Errorf("ocr: %w", err)
	}
	if err := c.Analysis.Finalize(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvCourierShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvCourierVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvCourierEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
