package server_test

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/JaimeStill/pdf-reader/internal/config"
	"github.com/JaimeStill/pdf-reader/internal/lifecycle"
	"github.com/JaimeStill/pdf-reader/internal/server"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     "5s",
		WriteTimeout:    "0s",
		ShutdownTimeout: "5s",
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	srv := server.New(testConfig(), handler, testLogger())
	lc := lifecycle.New()

	if err := srv.Start(lc); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr())
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	if _, err := http.Get("http://" + srv.Addr()); err == nil {
		t.Error("server still accepting connections after shutdown")
	}
}

func TestServer_BindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	cfg := testConfig()
	cfg.Port = ln.Addr().(*net.TCPAddr).Port

	srv := server.New(cfg, http.NotFoundHandler(), testLogger())
	if err := srv.Start(lifecycle.New()); err == nil {
		t.Error("Start() succeeded on an address already in use")
	}
}
