package storage

import (
	"fmt"
	"os"
)

// Storage backend kinds.
const (
	KindFilesystem = "filesystem"
	KindAzure      = "azure"
)

// Config holds storage backend parameters. Root applies to the filesystem
// backend; ContainerName and ConnectionString apply to the Azure backend.
type Config struct {
	Kind             string `toml:"kind"`
	Root             string `toml:"root"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Kind             string
	Root             string
	ContainerName    string
	ConnectionString string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Kind != "" {
		c.Kind = overlay.Kind
	}
	if overlay.Root != "" {
		c.Root = overlay.Root
	}
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
}

func (c *Config) loadDefaults() {
	if c.Kind == "" {
		c.Kind = KindFilesystem
	}
	if c.Root == "" {
		c.Root = "artifacts"
	}
	if c.ContainerName == "" {
		c.ContainerName = "citations"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Kind != "" {
		if v := os.Getenv(env.Kind); v != "" {
			c.Kind = v
		}
	}
	if env.Root != "" {
		if v := os.Getenv(env.Root); v != "" {
			c.Root = v
		}
	}
	if env.ContainerName != "" {
		if v := os.Getenv(env.ContainerName); v != "" {
			c.ContainerName = v
		}
	}
	if env.ConnectionString != "" {
		if v := os.Getenv(env.ConnectionString); v != "" {
			c.ConnectionString = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Kind {
	case KindFilesystem:
		if c.Root == "" {
			return fmt.Errorf("root required for filesystem storage")
		}
	case KindAzure:
		if c.ContainerName == "" {
			return fmt.Errorf("container_name required for azure storage")
		}
		if c.ConnectionString == "" {
			return fmt.Errorf("connection_string required for azure storage")
		}
	default:
		return fmt.Errorf("unknown storage kind: %q", c.Kind)
	}
	return nil
}
