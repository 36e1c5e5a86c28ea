package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	EnvOCRBaseURL = "COURIER_OCR_BASE_URL"
	EnvOCRAPIKey  = "COURIER_OCR_API_KEY"
	EnvOCRModel   = "COURIER_OCR_MODEL"
	EnvOCRTimeout = "COURIER_OCR_TIMEOUT"
)

// OCRConfig holds connection parameters for the OCR provider.
type OCRConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *OCRConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *OCRConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *OCRConfig) Merge(overlay *OCRConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *OCRConfig) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.mistral.ai"
	}
	if c.Model == "" {
		c.Model = "mistral-ocr-latest"
	}
	if c.Timeout == "" {
		c.Timeout = "2m"
	}
}

func (c *OCRConfig) loadEnv() {
	if v := os.Getenv(EnvOCRBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvOCRAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvOCRModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvOCRTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *OCRConfig) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}
