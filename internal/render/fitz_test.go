package render_test

import (
	"image"
	"testing"
	"time"

	"github.com/JaimeStill/pdf-reader/internal/document"
	"github.com/JaimeStill/pdf-reader/internal/document/pdftest"
	"github.com/JaimeStill/pdf-reader/internal/render"
)

func decodePDF(t *testing.T, pages ...pdftest.Page) *document.Document {
	t.Helper()

	doc, err := document.NewPDFCPU().Decode(t.Context(), pdftest.Build(pages...))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return doc
}

func within(got, want, tolerance int) bool {
	return got >= want-tolerance && got <= want+tolerance
}

func TestFitz_RenderPage(t *testing.T) {
	tests := []struct {
		name string
		page pdftest.Page
		w, h int
	}{
		{"letter", pdftest.Pages(1)[0], 612, 792},
		{"cropped", pdftest.Page{Crop: pdftest.Box{0, 0, 300, 300}, Fill: [3]float64{0, 0, 1}}, 300, 300},
		{"rotated", pdftest.Page{Rotate: 90, Fill: [3]float64{0, 0, 1}}, 792, 612},
	}

	r, err := render.NewRenderer(render.NewFitz(), 1.0, 10*time.Second, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := decodePDF(t, tt.page)
			surface := render.NewSurface()

			if err := r.RenderPage(t.Context(), doc, 1, surface, 1.0); err != nil {
				t.Fatalf("RenderPage failed: %v", err)
			}

			if got := surface.Bounds(); got != image.Rect(0, 0, tt.w, tt.h) {
				t.Fatalf("surface bounds = %v, want %dx%d", got, tt.w, tt.h)
			}

			c := surface.Snapshot().RGBAAt(tt.w/2, tt.h/2)
			if c.B < 200 || c.R > 60 || c.G > 60 {
				t.Errorf("center pixel = %+v, want blue", c)
			}
		})
	}
}

// The rasterizer and the decoder must agree on the visible page area, or the
// raster is stretched when painted onto the surface.
func TestFitz_RasterMatchesViewport(t *testing.T) {
	pages := []pdftest.Page{
		{Crop: pdftest.Box{0, 0, 300, 300}},
		{Crop: pdftest.Box{50, 100, 450, 300}, Rotate: 90},
	}

	for i, p := range pages {
		doc := decodePDF(t, p)
		page, err := doc.Page(1)
		if err != nil {
			t.Fatal(err)
		}
		vp := page.Viewport(1.0)

		img, err := render.NewFitz().Rasterize(t.Context(), doc, 1, document.PointsPerInch)
		if err != nil {
			t.Fatalf("page %d: Rasterize failed: %v", i, err)
		}

		b := img.Bounds()
		if !within(b.Dx(), int(vp.Width), 1) || !within(b.Dy(), int(vp.Height), 1) {
			t.Errorf("page %d: raster %dx%d, viewport %gx%g", i, b.Dx(), b.Dy(), vp.Width, vp.Height)
		}
	}
}

func TestFitz_PageRange(t *testing.T) {
	doc := decodePDF(t, pdftest.Pages(2)...)

	if _, err := render.NewFitz().Rasterize(t.Context(), doc, 3, document.PointsPerInch); err == nil {
		t.Error("expected error for page beyond document")
	}
}
