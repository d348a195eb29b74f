package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/pdf-reader/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvServiceEnv, "")

	cfg, err := config.LoadFrom("absent.toml")
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Render.Backend != config.BackendFitz || cfg.Render.Density != 1.0 || cfg.Render.Scale != 1.0 {
		t.Errorf("Render = %+v, want fitz at density 1 scale 1", cfg.Render)
	}
	if cfg.Storage.MaxFileSizeBytes() != 100_000_000 {
		t.Errorf("MaxFileSizeBytes() = %d, want 100MB", cfg.Storage.MaxFileSizeBytes())
	}
	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("ShutdownTimeoutDuration() = %v, want 30s", cfg.ShutdownTimeoutDuration())
	}
}

func TestLoadFrom_WithOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, "config.toml", `
shutdown_timeout = "30s"

[server]
port = 8080

[render]
density = 2.0
`)
	writeFile(t, "config.test.toml", `
shutdown_timeout = "60s"

[server]
port = 9090
`)
	t.Setenv(config.EnvServiceEnv, "test")

	cfg, err := config.LoadFrom(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}

	if cfg.ShutdownTimeout != "60s" {
		t.Errorf("ShutdownTimeout = %q, want 60s", cfg.ShutdownTimeout)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Render.Density != 2.0 {
		t.Errorf("Render.Density = %g, want base value 2", cfg.Render.Density)
	}
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvServiceEnv, "")
	writeFile(t, "config.toml", "[server\nport = ")

	if _, err := config.LoadFrom("config.toml"); err == nil {
		t.Error("LoadFrom() succeeded on malformed TOML")
	}
}

func TestFinalize_EnvOverrides(t *testing.T) {
	t.Setenv(config.EnvServiceShutdownTimeout, "5s")
	t.Setenv(config.EnvServerPort, "9000")
	t.Setenv(config.EnvLoggingLevel, "debug")
	t.Setenv(config.EnvStorageMaxFileSize, "2MB")
	t.Setenv(config.EnvRenderDensity, "2")
	t.Setenv(config.EnvRenderBackend, config.BackendImageMagick)

	cfg := &config.Config{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.ShutdownTimeoutDuration() != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeoutDuration())
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != config.LogLevelDebug {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Storage.MaxFileSizeBytes() != 2_000_000 {
		t.Errorf("MaxFileSizeBytes() = %d, want 2000000", cfg.Storage.MaxFileSizeBytes())
	}
	if cfg.Render.Density != 2 || cfg.Render.Backend != config.BackendImageMagick {
		t.Errorf("Render = %+v", cfg.Render)
	}
}

func TestFinalize_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"shutdown timeout", func(c *config.Config) { c.ShutdownTimeout = "soon" }},
		{"port", func(c *config.Config) { c.Server.Port = 70000 }},
		{"log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"max file size", func(c *config.Config) { c.Storage.MaxFileSize = "lots" }},
		{"backend", func(c *config.Config) { c.Render.Backend = "cairo" }},
		{"density", func(c *config.Config) { c.Render.Density = -1 }},
		{"scale", func(c *config.Config) { c.Render.Scale = 50 }},
		{"decode timeout", func(c *config.Config) { c.Render.DecodeTimeout = "-1s" }},
		{"render timeout", func(c *config.Config) { c.Render.RenderTimeout = "never" }},
		{"cors wildcard with credentials", func(c *config.Config) {
			c.CORS.Origins = []string{"*"}
			c.CORS.AllowCredentials = true
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			tt.mutate(cfg)
			if err := cfg.Finalize(); err == nil {
				t.Error("Finalize() succeeded, want validation error")
			}
		})
	}
}

func TestRenderConfig_ValidateKeepsOverrides(t *testing.T) {
	t.Setenv(config.EnvRenderDensity, "3")

	cfg := &config.RenderConfig{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	cfg.Density = 2
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if cfg.Density != 2 {
		t.Errorf("Density = %g, want override 2 kept over environment", cfg.Density)
	}

	cfg.Density = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted density 0")
	}
}

func TestMerge(t *testing.T) {
	base := &config.Config{
		ShutdownTimeout: "30s",
		Server:          config.ServerConfig{Host: "0.0.0.0", Port: 8080},
		Render:          config.RenderConfig{Backend: config.BackendFitz, Density: 1, Scale: 1},
		Storage:         config.StorageConfig{BasePath: "/tmp/a", MaxFileSize: "10MB"},
	}

	base.Merge(&config.Config{
		Server:  config.ServerConfig{Port: 9090},
		Render:  config.RenderConfig{Density: 3},
		Storage: config.StorageConfig{MaxFileSize: "not a size"},
	})

	if base.Server.Host != "0.0.0.0" || base.Server.Port != 9090 {
		t.Errorf("Server = %+v", base.Server)
	}
	if base.Render.Backend != config.BackendFitz || base.Render.Density != 3 || base.Render.Scale != 1 {
		t.Errorf("Render = %+v", base.Render)
	}
	if base.Storage.BasePath != "/tmp/a" || base.Storage.MaxFileSize != "10MB" {
		t.Errorf("Storage = %+v", base.Storage)
	}
	if base.ShutdownTimeout != "30s" {
		t.Errorf("ShutdownTimeout = %q, want 30s", base.ShutdownTimeout)
	}
}
