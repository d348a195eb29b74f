package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// Surface is a pixel-addressable drawing target, the server-side
// counterpart of a canvas. A blank surface has zero bounds.
type Surface struct {
	mu      sync.RWMutex
	img     *image.RGBA
	density float64
	busy    atomic.Bool
}

func NewSurface() *Surface {
	return &Surface{
		img:     image.NewRGBA(image.Rectangle{}),
		density: 1.0,
	}
}

// Resize reallocates the pixel buffer at w×h. All previous pixels are discarded.
func (s *Surface) Resize(w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
}

// Clear discards all pixels and returns the surface to blank.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = image.NewRGBA(image.Rectangle{})
	s.density = 1.0
}

// SetTransform records the density factor the current contents were painted at.
func (s *Surface) SetTransform(density float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.density = density
}

func (s *Surface) Density() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.density
}

func (s *Surface) Bounds() image.Rectangle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.img.Bounds()
}

func (s *Surface) Blank() bool {
	return s.Bounds().Empty()
}

// Fill sets every pixel to c.
func (s *Surface) Fill(c color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// Paint scales src over the entire surface.
func (s *Surface) Paint(src image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draw.CatmullRom.Scale(s.img, s.img.Bounds(), src, src.Bounds(), draw.Over, nil)
}

// Snapshot returns a copy of the current pixels.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// CopyFrom replaces this surface's dimensions, transform, and pixels with src's.
func (s *Surface) CopyFrom(src *Surface) {
	img := src.Snapshot()
	density := src.Density()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = img
	s.density = density
}

// EncodePNG writes the current pixels as a PNG image.
func (s *Surface) EncodePNG(w io.Writer) error {
	if s.Blank() {
		return fmt.Errorf("surface is blank")
	}
	return png.Encode(w, s.Snapshot())
}

func (s *Surface) acquire() bool {
	return s.busy.CompareAndSwap(false, true)
}

func (s *Surface) release() {
	s.busy.Store(false)
}
