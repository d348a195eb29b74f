package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"os/exec"

	ctxconfig "github.com/JaimeStill/document-context/pkg/config"
	ctxdoc "github.com/JaimeStill/document-context/pkg/document"
	ctximage "github.com/JaimeStill/document-context/pkg/image"
	"github.com/JaimeStill/pdf-reader/internal/document"
	"github.com/JaimeStill/pdf-reader/internal/source"
	"github.com/JaimeStill/pdf-reader/internal/storage"
	"github.com/google/uuid"
)

// ImageMagick rasterizes through document-context, which shells out to
// ImageMagick and reads from a file. The buffer is spilled to scratch
// storage for the duration of the call.
type ImageMagick struct {
	store  storage.System
	logger *slog.Logger
}

// NewImageMagick verifies magickPath resolves to an executable.
func NewImageMagick(store storage.System, magickPath string, logger *slog.Logger) (*ImageMagick, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: scratch storage required", ErrConfig)
	}
	if _, err := exec.LookPath(magickPath); err != nil {
		return nil, fmt.Errorf("%w: %s not found: %v", ErrConfig, magickPath, err)
	}

	return &ImageMagick{
		store:  store,
		logger: logger.With("rasterizer", "imagemagick"),
	}, nil
}

func (m *ImageMagick) Rasterize(ctx context.Context, doc *document.Document, page int, dpi float64) (image.Image, error) {
	if page < 1 || page > doc.PageCount() {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageRange, page, doc.PageCount())
	}

	key := fmt.Sprintf("rasterize/%s/document.pdf", uuid.New())
	if err := m.store.Store(ctx, key, doc.Bytes()); err != nil {
		return nil, fmt.Errorf("spill document: %w", err)
	}
	defer func() {
		if err := m.store.Delete(context.Background(), key); err != nil {
			m.logger.Warn("failed to remove spilled document", "key", key, "error", err)
		}
	}()

	path, err := m.store.Path(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("resolve spilled document: %w", err)
	}

	opened, err := ctxdoc.Open(path, source.PDFContentType)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer opened.Close()

	renderer, err := ctximage.NewImageMagickRenderer(ctxconfig.ImageConfig{
		Format: string(ctxdoc.PNG),
		DPI:    int(math.Round(dpi)),
		Options: map[string]any{
			"background": "white",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	extracted, err := opened.ExtractPage(page)
	if err != nil {
		return nil, fmt.Errorf("extract page %d: %w", page, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := extracted.ToImage(renderer, nil)
	if err != nil {
		return nil, fmt.Errorf("rasterize page %d: %w", page, err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode rasterized page %d: %w", page, err)
	}
	return img, nil
}
