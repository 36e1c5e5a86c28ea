package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvPipelineEventBuffer = "COURIER_PIPELINE_EVENT_BUFFER"
	EnvPipelineAutoAnalyze = "COURIER_PIPELINE_AUTO_ANALYZE"
)

// PipelineConfig holds processing pipeline settings.
type PipelineConfig struct {
	EventBuffer int  `toml:"event_buffer"`
	AutoAnalyze bool `toml:"auto_analyze"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites fields from overlay. AutoAnalyze always applies.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	c.AutoAnalyze = overlay.AutoAnalyze

	if overlay.EventBuffer != 0 {
		c.EventBuffer = overlay.EventBuffer
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.EventBuffer == 0 {
		c.EventBuffer = 64
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineEventBuffer); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.EventBuffer = n
		}
	}
	if v := os.Getenv(EnvPipelineAutoAnalyze); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AutoAnalyze = b
		}
	}
}

func (c *PipelineConfig) validate() error {
	if c.EventBuffer < 1 {
		return fmt.Errorf("event_buffer must be positive")
	}
	return nil
}
