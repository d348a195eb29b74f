// Package logger builds the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/pdf-reader/internal/config"
)

type System interface {
	Logger() *slog.Logger
}

type logger struct {
	logger *slog.Logger
}

// New creates a logger writing to stdout.
func New(cfg *config.LoggingConfig) System {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter creates a logger writing to w in the configured format.
func NewWithWriter(cfg *config.LoggingConfig, w io.Writer) System {
	opts := &slog.HandlerOptions{
		Level: cfg.Level.ToSlogLevel(),
	}

	var handler slog.Handler
	if cfg.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &logger{
		logger: slog.New(handler).With("service", "pdf-reader"),
	}
}

func (l *logger) Logger() *slog.Logger {
	return l.logger
}
