package config_test

import (
	"slices"
	"testing"

	"github.com/JaimeStill/pdf-reader/internal/config"
)

func TestCORSConfig_Defaults(t *testing.T) {
	cfg := &config.CORSConfig{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.Enabled {
		t.Error("Enabled = true, want false by default")
	}
	if !slices.Equal(cfg.AllowedMethods, []string{"GET", "POST", "OPTIONS"}) {
		t.Errorf("AllowedMethods = %v", cfg.AllowedMethods)
	}
	if !slices.Equal(cfg.AllowedHeaders, []string{"Content-Type", "Last-Event-ID"}) {
		t.Errorf("AllowedHeaders = %v", cfg.AllowedHeaders)
	}
	if cfg.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", cfg.MaxAge)
	}
}

func TestCORSConfig_Env(t *testing.T) {
	t.Setenv(config.EnvCORSEnabled, "true")
	t.Setenv(config.EnvCORSOrigins, "http://a.test, http://b.test,,")
	t.Setenv(config.EnvCORSAllowCredentials, "true")
	t.Setenv(config.EnvCORSMaxAge, "60")

	cfg := &config.CORSConfig{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if !cfg.Enabled || !cfg.AllowCredentials || cfg.MaxAge != 60 {
		t.Errorf("cfg = %+v", cfg)
	}
	if !slices.Equal(cfg.Origins, []string{"http://a.test", "http://b.test"}) {
		t.Errorf("Origins = %v", cfg.Origins)
	}
}

func TestCORSConfig_Merge(t *testing.T) {
	base := &config.CORSConfig{
		Enabled: true,
		Origins: []string{"http://a.test"},
		MaxAge:  100,
	}

	base.Merge(&config.CORSConfig{Enabled: false, AllowedMethods: []string{"GET"}})

	if base.Enabled {
		t.Error("Enabled should follow the overlay")
	}
	if !slices.Equal(base.Origins, []string{"http://a.test"}) {
		t.Errorf("Origins = %v, want base kept", base.Origins)
	}
	if !slices.Equal(base.AllowedMethods, []string{"GET"}) {
		t.Errorf("AllowedMethods = %v", base.AllowedMethods)
	}
	if base.MaxAge != 100 {
		t.Errorf("MaxAge = %d, want 100", base.MaxAge)
	}
}
