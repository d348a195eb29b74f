package document

import "fmt"

// PointsPerInch is the PDF user-space unit density.
const PointsPerInch = 72.0

// Dim is a page size in PDF points.
type Dim struct {
	Width  float64
	Height float64
}

// Viewport is the logical pixel rectangle a page occupies at a given scale.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

// Page is a single page handle. It is transient and never cached across runs.
type Page struct {
	number int
	size   Dim
}

// Number returns the 1-based page index.
func (p Page) Number() int {
	return p.number
}

// Viewport returns the page rectangle at scale. One point maps to one
// logical pixel at scale 1.0.
func (p Page) Viewport(scale float64) Viewport {
	return Viewport{
		Width:  p.size.Width * scale,
		Height: p.size.Height * scale,
		Scale:  scale,
	}
}

// Document is the decoded form of one run's byte buffer.
type Document struct {
	data  []byte
	pages []Dim
}

// New creates a Document over data with one Dim per page. Decoders call
// this once parsing succeeds; a nil pages slice is a valid zero-page document.
func New(data []byte, pages []Dim) *Document {
	return &Document{
		data:  data,
		pages: pages,
	}
}

func (d *Document) PageCount() int {
	return len(d.pages)
}

// Page returns the page at the 1-based index.
func (d *Document) Page(index int) (Page, error) {
	if index < 1 || index > len(d.pages) {
		return Page{}, fmt.Errorf("%w: page %d of %d", ErrPageRange, index, len(d.pages))
	}
	return Page{number: index, size: d.pages[index-1]}, nil
}

// Bytes returns the buffer the document was decoded from.
// Callers must not modify it.
func (d *Document) Bytes() []byte {
	return d.data
}
