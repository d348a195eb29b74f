package render

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/JaimeStill/pdf-reader/internal/config"
	"github.com/JaimeStill/pdf-reader/internal/document"
	"github.com/JaimeStill/pdf-reader/internal/storage"
)

// Rasterizer is the page rasterization capability. It renders the 1-based
// page of doc at dpi and returns the resulting pixels.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc *document.Document, page int, dpi float64) (image.Image, error)
}

// NewRasterizer selects a backend by cfg.Backend. Backends that depend on
// external tooling verify it here so a misconfiguration fails at startup.
func NewRasterizer(cfg *config.RenderConfig, store storage.System, logger *slog.Logger) (Rasterizer, error) {
	switch cfg.Backend {
	case config.BackendFitz:
		return NewFitz(), nil
	case config.BackendImageMagick:
		return NewImageMagick(store, cfg.MagickPath, logger)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrConfig, cfg.Backend)
	}
}
