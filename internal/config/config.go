// Package config provides application configuration management with support for
// TOML files, environment variable overrides, and configuration overlays.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// BaseConfigFile is the primary configuration file name.
	BaseConfigFile = "config.toml"

	// OverlayConfigPattern is the file name pattern for environment-specific overlays.
	OverlayConfigPattern = "config.%s.toml"

	// EnvServiceEnv specifies the environment name for configuration overlays.
	EnvServiceEnv = "SERVICE_ENV"

	// EnvServiceShutdownTimeout overrides the service shutdown timeout.
	EnvServiceShutdownTimeout = "SERVICE_SHUTDOWN_TIMEOUT"
)

// Config represents the root service configuration.
type Config struct {
	Server          ServerConfig  `toml:"server"`
	Logging         LoggingConfig `toml:"logging"`
	CORS            CORSConfig    `toml:"cors"`
	Storage         StorageConfig `toml:"storage"`
	Render          RenderConfig  `toml:"render"`
	ShutdownTimeout string        `toml:"shutdown_timeout"`
}

// ShutdownTimeoutDuration parses and returns the shutdown timeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads config.toml from the working directory. See LoadFrom.
func Load() (*Config, error) {
	return LoadFrom(BaseConfigFile)
}

// LoadFrom reads the base configuration at path and applies the overlay
// for SERVICE_ENV found beside it. A missing base file is not an error:
// defaults and environment overrides apply on Finalize.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		if cfg, err = load(path); err != nil {
			return nil, err
		}
	}

	if overlay := overlayPath(path); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay: %w", err)
		}
		cfg.Merge(o)
	}
	return cfg, nil
}

type section interface {
	Finalize() error
}

func (c *Config) sections() []struct {
	name string
	section
} {
	return []struct {
		name string
		section
	}{
		{"server", &c.Server},
		{"logging", &c.Logging},
		{"cors", &c.CORS},
		{"storage", &c.Storage},
		{"render", &c.Render},
	}
}

// Finalize resolves the root settings and then each section in turn.
// Errors name the section that failed.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	if err := c.validate(); err != nil {
		return err
	}

	for _, s := range c.sections() {
		if err := s.Finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// Merge overlays non-zero values onto c, section by section.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	c.Server.Merge(&overlay.Server)
	c.Logging.Merge(&overlay.Logging)
	c.CORS.Merge(&overlay.CORS)
	c.Storage.Merge(&overlay.Storage)
	c.Render.Merge(&overlay.Render)
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvServiceShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
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
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// overlayPath returns config.<SERVICE_ENV>.toml beside the base file, or ""
// when no environment is set or the overlay does not exist.
func overlayPath(base string) string {
	env := os.Getenv(EnvServiceEnv)
	if env == "" {
		return ""
	}

	path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
