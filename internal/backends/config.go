package backends

import (
	"fmt"
	"os"
	"time"
)

// Kind selects a backend transport.
type Kind string

const (
	// KindOllama talks to a local Ollama server's native chat API.
	KindOllama Kind = "ollama"
	// KindGateway talks to any OpenAI-compatible chat completions endpoint
	// (OpenAI, OpenRouter, institutional gateways) differing only in base
	// URL and auth.
	KindGateway Kind = "gateway"
)

// Config describes one configured backend. TokenEnv names an environment
// variable holding the bearer token; the token value itself never appears in
// config files.
type Config struct {
	Name        string            `toml:"name"`
	Kind        string            `toml:"kind"`
	BaseURL     string            `toml:"base_url"`
	Model       string            `toml:"model"`
	TokenEnv    string            `toml:"token_env"`
	Headers     map[string]string `toml:"headers"`
	Temperature float64           `toml:"temperature"`
	Timeout     string            `toml:"timeout"`
}

// Finalize applies defaults and validation. Unknown kinds and missing models
// are configuration errors, fatal at startup.
func (c *Config) Finalize() error {
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
	if c.Timeout == "" {
		c.Timeout = "120s"
	}

	switch Kind(c.Kind) {
	case KindOllama:
		if c.BaseURL == "" {
			c.BaseURL = "http://localhost:11434"
		}
	case KindGateway:
		if c.BaseURL == "" {
			return fmt.Errorf("backend %s: base_url required for gateway kind", c.Name)
		}
	default:
		return fmt.Errorf("backend %s: %w: %q", c.Name, ErrUnknownKind, c.Kind)
	}

	if c.Model == "" {
		return fmt.Errorf("backend %s: model required", c.Name)
	}
	if c.Name == "" {
		c.Name = c.Kind
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("backend %s: invalid timeout: %w", c.Name, err)
	}

	return nil
}

// Token resolves the bearer token from the configured environment variable.
func (c *Config) Token() string {
	if c.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.TokenEnv)
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// New constructs a backend from finalized configuration.
func New(cfg Config) (Backend, error) {
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	switch Kind(cfg.Kind) {
	case KindOllama:
		return newOllama(cfg), nil
	case KindGateway:
		return newGateway(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}
