package render

import (
	"context"
	"fmt"
	"image"

	"github.com/JaimeStill/pdf-reader/internal/document"
	"github.com/gen2brain/go-fitz"
)

// Fitz rasterizes with MuPDF directly from the in-memory buffer.
type Fitz struct{}

func NewFitz() *Fitz {
	return &Fitz{}
}

func (f *Fitz) Rasterize(ctx context.Context, doc *document.Document, page int, dpi float64) (image.Image, error) {
	fd, err := fitz.NewFromMemory(doc.Bytes())
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer fd.Close()

	if page < 1 || page > fd.NumPage() {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageRange, page, fd.NumPage())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := fd.ImageDPI(page-1, dpi)
	if err != nil {
		return nil, fmt.Errorf("rasterize page %d: %w", page, err)
	}
	return img, nil
}
