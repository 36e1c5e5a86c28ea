package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	EnvPaperlessBaseURL  = "COURIER_PAPERLESS_BASE_URL"
	EnvPaperlessToken    = "COURIER_PAPERLESS_TOKEN"
	EnvPaperlessTimeout  = "COURIER_PAPERLESS_TIMEOUT"
	EnvPaperlessCacheTTL = "COURIER_PAPERLESS_CACHE_TTL"
)

// PaperlessConfig holds connection parameters for the document management
// backend.
type PaperlessConfig struct {
	BaseURL  string `toml:"base_url"`
	Token    string `toml:"token"`
	Timeout  string `toml:"timeout"`
	CacheTTL string `toml:"cache_ttl"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *PaperlessConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (c *PaperlessConfig) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PaperlessConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PaperlessConfig) Merge(overlay *PaperlessConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.CacheTTL != "" {
		c.CacheTTL = overlay.CacheTTL
	}
}

func (c *PaperlessConfig) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "5m"
	}
}

func (c *PaperlessConfig) loadEnv() {
	if v := os.Getenv(EnvPaperlessBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvPaperlessToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvPaperlessTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvPaperlessCacheTTL); v != "" {
		c.CacheTTL = v
	}
}

func (c *PaperlessConfig) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url required")
	}
	if c.Token == "" {
		return fmt.Errorf("token required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("invalid cache_ttl: %w", err)
	}

	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}
