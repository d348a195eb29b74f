package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Decoder is the document decoding capability.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*Document, error)
}

// PDFCPU decodes documents with pdfcpu. Validation is relaxed to accept the
// minor structural defects common in real-world files.
type PDFCPU struct {
	conf *model.Configuration
}

func NewPDFCPU() *PDFCPU {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFCPU{conf: conf}
}

func (p *PDFCPU) Decode(ctx context.Context, data []byte) (*Document, error) {
	pctx, err := api.ReadContext(bytes.NewReader(data), p.conf)
	if err != nil {
		return nil, classify(err)
	}

	if err := api.ValidateContext(pctx); err != nil {
		return nil, classify(err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if pctx.PageCount == 0 {
		return New(data, nil), nil
	}

	bounds, err := pctx.PageBoundaries(nil)
	if err != nil {
		return nil, fmt.Errorf("page boundaries: %w", err)
	}

	pages := make([]Dim, len(bounds))
	for i, pb := range bounds {
		pages[i] = visibleDim(pb)
	}

	return New(data, pages), nil
}

// visibleDim is the rendered size of a page: its crop box (falling back to
// the media box), with width and height swapped for quarter-turn rotations.
func visibleDim(pb model.PageBoundaries) Dim {
	box := pb.CropBox()
	d := Dim{Width: box.Width(), Height: box.Height()}
	if pb.Rot%180 != 0 {
		d.Width, d.Height = d.Height, d.Width
	}
	return d
}

func classify(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "password") || strings.Contains(msg, "encrypt") {
		return fmt.Errorf("%w: %v", ErrEncrypted, err)
	}
	return err
}
