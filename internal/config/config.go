// Package config loads the citetype configuration: a base config.toml,
// an optional environment overlay, and CITETYPE_* environment overrides,
// finalized per section before any document is processed.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/nmarkham/citetype/internal/backends"
	"github.com/nmarkham/citetype/pkg/database"
	"github.com/nmarkham/citetype/pkg/pagination"
	"github.com/nmarkham/citetype/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvCitetypeEnv             = "CITETYPE_ENV"
	EnvCitetypeShutdownTimeout = "CITETYPE_SHUTDOWN_TIMEOUT"
	EnvCitetypeVersion         = "CITETYPE_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "CITETYPE_DB_HOST",
	Port:            "CITETYPE_DB_PORT",
	Name:            "CITETYPE_DB_NAME",
	User:            "CITETYPE_DB_USER",
	Password:        "CITETYPE_DB_PASSWORD",
	SSLMode:         "CITETYPE_DB_SSL_MODE",
	MaxOpenConns:    "CITETYPE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "CITETYPE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "CITETYPE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "CITETYPE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Kind:             "CITETYPE_STORAGE_KIND",
	Root:             "CITETYPE_STORAGE_ROOT",
	ContainerName:    "CITETYPE_STORAGE_CONTAINER_NAME",
	ConnectionString: "CITETYPE_STORAGE_CONNECTION_STRING",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "CITETYPE_PAGE_SIZE",
	MaxPageSize:     "CITETYPE_MAX_PAGE_SIZE",
}

// Config is the root configuration for the citetype pipeline.
type Config struct {
	Database        database.Config   `toml:"database"`
	Storage         storage.Config    `toml:"storage"`
	Pagination      pagination.Config `toml:"pagination"`
	Pipeline        PipelineConfig    `toml:"pipeline"`
	Backends        []backends.Config `toml:"backends"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the CITETYPE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvCitetypeEnv); env != "" {
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
// and finalizes all values. If no config.toml exists, defaults and
// environment variables provide all configuration.
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
// An overlay with any backends replaces the backend list wholesale.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if len(overlay.Backends) > 0 {
		c.Backends = overlay.Backends
	}
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Pagination.Merge(&overlay.Pagination)
	c.Pipeline.Merge(&overlay.Pipeline)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	for i := range c.Backends {
		if err := c.Backends[i].Finalize(); err != nil {
			return fmt.Errorf("backends[%d]: %w", i, err)
		}
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
	if v := os.Getenv(EnvCitetypeShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvCitetypeVersion); v != "" {
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
	if env := os.Getenv(EnvCitetypeEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
