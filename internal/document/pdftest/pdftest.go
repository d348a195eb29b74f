// Package pdftest builds minimal PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
)

// Letter is the US Letter media box in points.
var Letter = Box{0, 0, 612, 792}

// Box is a PDF rectangle: lower-left x, y and upper-right x, y.
type Box [4]float64

func (b Box) String() string {
	return fmt.Sprintf("[%g %g %g %g]", b[0], b[1], b[2], b[3])
}

// Page describes one page. A zero Media defaults to Letter and a zero
// Crop is omitted. Fill paints the whole media box in that RGB color.
type Page struct {
	Media  Box
	Crop   Box
	Rotate int
	Fill   [3]float64
}

// Pages returns n Letter pages filled with blue.
func Pages(n int) []Page {
	out := make([]Page, n)
	for i := range out {
		out[i] = Page{Fill: [3]float64{0, 0, 1}}
	}
	return out
}

// Build writes a PDF with a catalog, one page tree, and a cross-reference
// table holding exact byte offsets.
func Build(pages ...Page) []byte {
	var objects []string

	kids := &bytes.Buffer{}
	for i := range pages {
		fmt.Fprintf(kids, "%d 0 R ", 3+2*i)
	}

	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", bytes.TrimSpace(kids.Bytes()), len(pages)),
	)

	for i, p := range pages {
		media := p.Media
		if media == (Box{}) {
			media = Letter
		}

		dict := fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox %s", media)
		if p.Crop != (Box{}) {
			dict += fmt.Sprintf(" /CropBox %s", p.Crop)
		}
		if p.Rotate != 0 {
			dict += fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		dict += fmt.Sprintf(" /Resources << >> /Contents %d 0 R >>", 4+2*i)

		content := fmt.Sprintf("%g %g %g rg %g %g %g %g re f",
			p.Fill[0], p.Fill[1], p.Fill[2],
			media[0], media[1], media[2]-media[0], media[3]-media[1])
		stream := fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)

		objects = append(objects, dict, stream)
	}

	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}
