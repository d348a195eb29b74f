package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/pdf-reader/pkg/handlers"
)

func TestRespondJSON(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.RespondJSON(w, http.StatusAccepted, map[string]any{"token": 1})

	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["token"] != float64(1) {
		t.Errorf("token = %v", body["token"])
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusBadRequest, "level=WARN"},
		{http.StatusRequestEntityTooLarge, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))

			w := httptest.NewRecorder()
			handlers.RespondError(w, logger, tt.status, errors.New("selection must be a PDF document"))

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}

			var body map[string]string
			json.NewDecoder(w.Body).Decode(&body)
			if body["error"] != "selection must be a PDF document" {
				t.Errorf("error = %q", body["error"])
			}
			if !strings.Contains(logs.String(), tt.level) {
				t.Errorf("log = %q, want %s", logs.String(), tt.level)
			}
		})
	}
}
