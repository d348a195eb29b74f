package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvRenderBackend       = "RENDER_BACKEND"
	EnvRenderDensity       = "RENDER_DENSITY"
	EnvRenderScale         = "RENDER_SCALE"
	EnvRenderMagickPath    = "RENDER_MAGICK_PATH"
	EnvRenderDecodeTimeout = "RENDER_DECODE_TIMEOUT"
	EnvRenderRenderTimeout = "RENDER_RENDER_TIMEOUT"
)

// Rasterizer backends.
const (
	BackendFitz        = "fitz"
	BackendImageMagick = "imagemagick"
)

// RenderConfig contains the decode and rasterize pipeline configuration.
type RenderConfig struct {
	// Backend selects the page rasterizer: "fitz" or "imagemagick".
	Backend string `toml:"backend"`

	// Density is the device pixel ratio applied uniformly to the surface
	// dimensions and the paint transform. Default: 1.0
	Density float64 `toml:"density"`

	// Scale is the logical viewport scale for the first page. Default: 1.0
	Scale float64 `toml:"scale"`

	// MagickPath is the ImageMagick binary checked at startup by the imagemagick backend.
	MagickPath string `toml:"magick_path"`

	DecodeTimeout string `toml:"decode_timeout"`
	RenderTimeout string `toml:"render_timeout"`
}

func (c *RenderConfig) DecodeTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.DecodeTimeout)
	return d
}

func (c *RenderConfig) RenderTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RenderTimeout)
	return d
}

// Finalize applies defaults, loads environment overrides, and validates the render configuration.
func (c *RenderConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Validate re-checks values changed after Finalize, such as command-line
// overrides, without reapplying defaults or environment variables.
func (c *RenderConfig) Validate() error {
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *RenderConfig) Merge(overlay *RenderConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Density != 0 {
		c.Density = overlay.Density
	}
	if overlay.Scale != 0 {
		c.Scale = overlay.Scale
	}
	if overlay.MagickPath != "" {
		c.MagickPath = overlay.MagickPath
	}
	if overlay.DecodeTimeout != "" {
		c.DecodeTimeout = overlay.DecodeTimeout
	}
	if overlay.RenderTimeout != "" {
		c.RenderTimeout = overlay.RenderTimeout
	}
}

func (c *RenderConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFitz
	}
	if c.Density == 0 {
		c.Density = 1.0
	}
	if c.Scale == 0 {
		c.Scale = 1.0
	}
	if c.MagickPath == "" {
		c.MagickPath = "magick"
	}
	if c.DecodeTimeout == "" {
		c.DecodeTimeout = "30s"
	}
	if c.RenderTimeout == "" {
		c.RenderTimeout = "60s"
	}
}

func (c *RenderConfig) loadEnv() {
	if v := os.Getenv(EnvRenderBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvRenderDensity); v != "" {
		if d, err := strconv.ParseFloat(v, 64); err == nil {
			c.Density = d
		}
	}
	if v := os.Getenv(EnvRenderScale); v != "" {
		if s, err := strconv.ParseFloat(v, 64); err == nil {
			c.Scale = s
		}
	}
	if v := os.Getenv(EnvRenderMagickPath); v != "" {
		c.MagickPath = v
	}
	if v := os.Getenv(EnvRenderDecodeTimeout); v != "" {
		c.DecodeTimeout = v
	}
	if v := os.Getenv(EnvRenderRenderTimeout); v != "" {
		c.RenderTimeout = v
	}
}

func (c *RenderConfig) validate() error {
	switch c.Backend {
	case BackendFitz, BackendImageMagick:
	default:
		return fmt.Errorf("invalid backend: %s (must be fitz or imagemagick)", c.Backend)
	}
	if c.Density <= 0 || c.Density > 8 {
		return fmt.Errorf("density must be in (0, 8], got %g", c.Density)
	}
	if c.Scale <= 0 || c.Scale > 10 {
		return fmt.Errorf("scale must be in (0, 10], got %g", c.Scale)
	}

	decode, err := time.ParseDuration(c.DecodeTimeout)
	if err != nil {
		return fmt.Errorf("invalid decode_timeout: %w", err)
	}
	if decode <= 0 {
		return fmt.Errorf("decode_timeout must be positive")
	}

	render, err := time.ParseDuration(c.RenderTimeout)
	if err != nil {
		return fmt.Errorf("invalid render_timeout: %w", err)
	}
	if render <= 0 {
		return fmt.Errorf("render_timeout must be positive")
	}
	return nil
}
