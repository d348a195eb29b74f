package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"time"

	"github.com/JaimeStill/pdf-reader/internal/document"
)

// Renderer is the page render stage of a run.
type Renderer struct {
	rasterizer Rasterizer
	density    float64
	timeout    time.Duration
	logger     *slog.Logger
}

// NewRenderer binds a Rasterizer to the device pixel density applied to every
// render. A non-positive density falls back to 1.0.
func NewRenderer(rasterizer Rasterizer, density float64, timeout time.Duration, logger *slog.Logger) (*Renderer, error) {
	if rasterizer == nil {
		return nil, ErrConfig
	}
	if density <= 0 {
		density = 1.0
	}

	return &Renderer{
		rasterizer: rasterizer,
		density:    density,
		timeout:    timeout,
		logger:     logger.With("stage", "render"),
	}, nil
}

func (r *Renderer) Density() float64 {
	return r.density
}

// PixelSize returns the surface dimensions for vp at the renderer's density.
func (r *Renderer) PixelSize(vp document.Viewport) (int, int) {
	return int(math.Floor(vp.Width * r.density)), int(math.Floor(vp.Height * r.density))
}

type rasterResult struct {
	img image.Image
	err error
}

// RenderPage paints page pageIndex of doc onto surface at scale.
// The surface is resized to the viewport's pixel dimensions and every pixel
// is overwritten; on failure the surface is left untouched.
func (r *Renderer) RenderPage(ctx context.Context, doc *document.Document, pageIndex int, surface *Surface, scale float64) error {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidScale, scale)
	}

	page, err := doc.Page(pageIndex)
	if err != nil {
		return err
	}

	if !surface.acquire() {
		return ErrSurfaceBusy
	}
	defer surface.release()

	vp := page.Viewport(scale)
	w, h := r.PixelSize(vp)
	if w < 1 || h < 1 {
		return fmt.Errorf("%w: degenerate viewport %gx%g", ErrRender, vp.Width, vp.Height)
	}

	dpi := document.PointsPerInch * scale * r.density
	img, err := r.rasterize(ctx, doc, pageIndex, dpi)
	if err != nil {
		return err
	}

	surface.Resize(w, h)
	surface.SetTransform(r.density)
	surface.Fill(color.White)
	surface.Paint(img)

	r.logger.Debug("page rendered", "page", pageIndex, "width", w, "height", h, "dpi", dpi)
	return nil
}

func (r *Renderer) rasterize(ctx context.Context, doc *document.Document, pageIndex int, dpi float64) (image.Image, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	results := make(chan rasterResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				results <- rasterResult{err: fmt.Errorf("rasterizer panic: %v", rec)}
			}
		}()
		img, err := r.rasterizer.Rasterize(ctx, doc, pageIndex, dpi)
		results <- rasterResult{img: img, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrRender, ctx.Err())
	case res := <-results:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRender, res.err)
		}
		if res.img == nil || res.img.Bounds().Empty() {
			return nil, fmt.Errorf("%w: rasterizer returned no pixels", ErrRender)
		}
		return res.img, nil
	}
}
