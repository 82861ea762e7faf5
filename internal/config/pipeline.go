package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/nmarkham/citetype/internal/backends"
)

const (
	EnvCitetypeThreshold   = "CITETYPE_THRESHOLD"
	EnvCitetypeConcurrency = "CITETYPE_CONCURRENCY"
	EnvCitetypeStrategy    = "CITETYPE_STRATEGY"
)

// PipelineConfig holds the classification pipeline settings: the confidence
// threshold gating auto-acceptance, document fan-out, selection strategy, and
// artifact key prefixes.
type PipelineConfig struct {
	Threshold       float64  `toml:"threshold"`
	Concurrency     int      `toml:"concurrency"`
	Strategy        string   `toml:"strategy"`
	MinAgreement    int      `toml:"min_agreement"`
	PreferredModels []string `toml:"preferred_models"`
	Mode            string   `toml:"mode"`

	ContextsPrefix        string `toml:"contexts_prefix"`
	ClassificationsPrefix string `toml:"classifications_prefix"`

	RetryMaxAttempts       int     `toml:"retry_max_attempts"`
	RetryBackoffBase       string  `toml:"retry_backoff_base"`
	RetryBackoffMultiplier float64 `toml:"retry_backoff_multiplier"`
	RetryMaxBackoff        string  `toml:"retry_max_backoff"`
}

// Retry returns the backend retry settings.
func (c *PipelineConfig) Retry() backends.RetryConfig {
	base, _ := time.ParseDuration(c.RetryBackoffBase)
	maxBackoff, _ := time.ParseDuration(c.RetryMaxBackoff)
	return backends.RetryConfig{
		MaxAttempts:       c.RetryMaxAttempts,
		BackoffBase:       base,
		BackoffMultiplier: c.RetryBackoffMultiplier,
		MaxBackoff:        maxBackoff,
	}
}

// ClassificationMode returns the configured request mode.
func (c *PipelineConfig) ClassificationMode() backends.Mode {
	return backends.Mode(c.Mode)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.Threshold != 0 {
		c.Threshold = overlay.Threshold
	}
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
	if overlay.Strategy != "" {
		c.Strategy = overlay.Strategy
	}
	if overlay.MinAgreement != 0 {
		c.MinAgreement = overlay.MinAgreement
	}
	if len(overlay.PreferredModels) > 0 {
		c.PreferredModels = overlay.PreferredModels
	}
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.ContextsPrefix != "" {
		c.ContextsPrefix = overlay.ContextsPrefix
	}
	if overlay.ClassificationsPrefix != "" {
		c.ClassificationsPrefix = overlay.ClassificationsPrefix
	}
	if overlay.RetryMaxAttempts != 0 {
		c.RetryMaxAttempts = overlay.RetryMaxAttempts
	}
	if overlay.RetryBackoffBase != "" {
		c.RetryBackoffBase = overlay.RetryBackoffBase
	}
	if overlay.RetryBackoffMultiplier != 0 {
		c.RetryBackoffMultiplier = overlay.RetryBackoffMultiplier
	}
	if overlay.RetryMaxBackoff != "" {
		c.RetryMaxBackoff = overlay.RetryMaxBackoff
	}
}

func (c *PipelineConfig) loadDefaults() {
	defaults := backends.DefaultRetryConfig()

	if c.Threshold == 0 {
		c.Threshold = 0.7
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	if c.Strategy == "" {
		c.Strategy = "highest_confidence"
	}
	if c.MinAgreement == 0 {
		c.MinAgreement = 2
	}
	if c.Mode == "" {
		c.Mode = string(backends.ModeShortContext)
	}
	if c.ContextsPrefix == "" {
		c.ContextsPrefix = "contexts"
	}
	if c.ClassificationsPrefix == "" {
		c.ClassificationsPrefix = "classifications"
	}
	if c.RetryMaxAttempts == 0 {
		c.RetryMaxAttempts = defaults.MaxAttempts
	}
	if c.RetryBackoffBase == "" {
		c.RetryBackoffBase = defaults.BackoffBase.String()
	}
	if c.RetryBackoffMultiplier == 0 {
		c.RetryBackoffMultiplier = defaults.BackoffMultiplier
	}
	if c.RetryMaxBackoff == "" {
		c.RetryMaxBackoff = defaults.MaxBackoff.String()
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvCitetypeThreshold); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Threshold = f
		}
	}
	if v := os.Getenv(EnvCitetypeConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Concurrency = n
		}
	}
	if v := os.Getenv(EnvCitetypeStrategy); v != "" {
		c.Strategy = v
	}
}

func (c *PipelineConfig) validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in [0,1], got %v", c.Threshold)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	switch backends.Mode(c.Mode) {
	case backends.ModeShortContext, backends.ModeFullText:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if _, err := time.ParseDuration(c.RetryBackoffBase); err != nil {
		return fmt.Errorf("invalid retry_backoff_base: %w", err)
	}
	if _, err := time.ParseDuration(c.RetryMaxBackoff); err != nil {
		return fmt.Errorf("invalid retry_max_backoff: %w", err)
	}
	return nil
}
