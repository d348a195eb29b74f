package main

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/pdf-reader/internal/config"
)

type readiness bool

func (r readiness) Ready() bool { return bool(r) }

func TestHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	handleHealthCheck(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("healthz = %d %q", w.Code, w.Body.String())
	}
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		ready  bool
		status int
		body   string
	}{
		{false, http.StatusServiceUnavailable, "NOT READY"},
		{true, http.StatusOK, "READY"},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			w := httptest.NewRecorder()
			handleReadyCheck(readiness(tt.ready))(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tt.status || w.Body.String() != tt.body {
				t.Errorf("readyz = %d %q, want %d %q", w.Code, w.Body.String(), tt.status, tt.body)
			}
		})
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv(config.EnvServiceEnv, "")

	cfg := &config.Config{
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: 1},
		Logging: config.LoggingConfig{Level: config.LogLevelError},
		Storage: config.StorageConfig{BasePath: filepath.Join(t.TempDir(), "scratch"), MaxFileSize: "1MB"},
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	cfg.Server.Port = 0
	return cfg
}

func TestService_Lifecycle(t *testing.T) {
	cfg := testConfig(t)

	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}
	if err := svc.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	base := fmt.Sprintf("http://%s", svc.server.Addr())
	for path, want := range map[string]string{"/healthz": "OK", "/readyz": "READY"} {
		resp, err := http.Get(base + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if string(body) != want {
			t.Errorf("GET %s = %q, want %q", path, body, want)
		}
	}

	resp, err := http.Get(base + "/api/reader/state/")
	if err != nil {
		t.Fatalf("GET state failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET state with trailing slash = %d, want 200 after redirect", resp.StatusCode)
	}

	if err := svc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvServiceEnv, "")

	cfg, err := loadConfig("absent.toml")
	if err != nil {
		t.Fatalf("loadConfig() failed: %v", err)
	}
	if cfg.Render.Backend != config.BackendFitz {
		t.Errorf("Render.Backend = %q, want fitz", cfg.Render.Backend)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"serve", "render"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, sub, err)
		}
	}
}

func TestResolveSource_LocalPath(t *testing.T) {
	if _, err := resolveSource(t.Context(), filepath.Join(t.TempDir(), "missing.pdf"), ""); err == nil {
		t.Error("resolveSource() succeeded for a missing file")
	}
}
