package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvAnalysisEnabled          = "COURIER_ANALYSIS_ENABLED"
	EnvAnalysisBaseURL          = "COURIER_ANALYSIS_BASE_URL"
	EnvAnalysisAPIKey           = "COURIER_ANALYSIS_API_KEY"
	EnvAnalysisModel            = "COURIER_ANALYSIS_MODEL"
	EnvAnalysisTimeout          = "COURIER_ANALYSIS_TIMEOUT"
	EnvAnalysisMaxContentLength = "COURIER_ANALYSIS_MAX_CONTENT_LENGTH"
	EnvAnalysisTagging          = "COURIER_ANALYSIS_TAGGING"
	EnvAnalysisTitle            = "COURIER_ANALYSIS_TITLE"
	EnvAnalysisDocumentType     = "COURIER_ANALYSIS_DOCUMENT_TYPE"
	EnvAnalysisCorrespondents   = "COURIER_ANALYSIS_CORRESPONDENTS"
)

// AnalysisConfig holds connection parameters for the AI analysis provider and
// the feature toggles controlling which document fields analysis may update.
// Toggles default to on; omitting one from config leaves it enabled. Enabled
// is a pointer so an overlay that omits the section cannot flip it off.
type AnalysisConfig struct {
	Enabled          *bool  `toml:"enabled"`
	BaseURL          string `toml:"base_url"`
	APIKey           string `toml:"api_key"`
	Model            string `toml:"model"`
	Timeout          string `toml:"timeout"`
	MaxContentLength int    `toml:"max_content_length"`
	Tagging          *bool  `toml:"tagging"`
	Title            *bool  `toml:"title"`
	DocumentType     *bool  `toml:"document_type"`
	Correspondents   *bool  `toml:"correspondents"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *AnalysisConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// IsEnabled reports whether AI analysis is turned on. Unset means disabled.
func (c *AnalysisConfig) IsEnabled() bool {
	return c.Enabled != nil && *c.Enabled
}

// TaggingEnabled reports whether analysis may update document tags.
func (c *AnalysisConfig) TaggingEnabled() bool { return toggled(c.Tagging) }

// TitleEnabled reports whether analysis may update document titles.
func (c *AnalysisConfig) TitleEnabled() bool { return toggled(c.Title) }

// DocumentTypeEnabled reports whether analysis may update document types.
func (c *AnalysisConfig) DocumentTypeEnabled() bool { return toggled(c.DocumentType) }

// CorrespondentsEnabled reports whether analysis may update correspondents.
func (c *AnalysisConfig) CorrespondentsEnabled() bool { return toggled(c.Correspondents) }

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AnalysisConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites fields from overlay. Enabled and the toggles only apply
// when the overlay sets them.
func (c *AnalysisConfig) Merge(overlay *AnalysisConfig) {
	if overlay.Enabled != nil {
		c.Enabled = overlay.Enabled
	}

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
	if overlay.MaxContentLength != 0 {
		c.MaxContentLength = overlay.MaxContentLength
	}
	if overlay.Tagging != nil {
		c.Tagging = overlay.Tagging
	}
	if overlay.Title != nil {
		c.Title = overlay.Title
	}
	if overlay.DocumentType != nil {
		c.DocumentType = overlay.DocumentType
	}
	if overlay.Correspondents != nil {
		c.Correspondents = overlay.Correspondents
	}
}

func (c *AnalysisConfig) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Timeout == "" {
		c.Timeout = "2m"
	}
	if c.MaxContentLength == 0 {
		c.MaxContentLength = 50000
	}
}

func (c *AnalysisConfig) loadEnv() {
	setToggle := func(envVar string, target **bool) {
		if v := os.Getenv(envVar); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*target = &b
			}
		}
	}

	setToggle(EnvAnalysisEnabled, &c.Enabled)
	if v := os.Getenv(EnvAnalysisBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvAnalysisAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvAnalysisModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvAnalysisTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvAnalysisMaxContentLength); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxContentLength = n
		}
	}

	setToggle(EnvAnalysisTagging, &c.Tagging)
	setToggle(EnvAnalysisTitle, &c.Title)
	setToggle(EnvAnalysisDocumentType, &c.DocumentType)
	setToggle(EnvAnalysisCorrespondents, &c.Correspondents)
}

func (c *AnalysisConfig) validate() error {
	if !c.IsEnabled() {
		return nil
	}
	if c.APIKey == "" {
		return fmt.Errorf("api_key required")
	}
	if c.MaxContentLength < 1 {
		return fmt.Errorf("max_content_length must be positive")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}

func toggled(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}
