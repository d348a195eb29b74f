// Package render paints a document page onto a Surface. Rasterization is
// delegated to a pluggable Rasterizer backend; the Renderer owns viewport
// sizing, device pixel density, and full overwrite of the target surface.
package render

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/pdf-reader/internal/document"
)

// Errors returned by the Renderer and its backends.
var (
	ErrRender       = errors.New("rasterization fault")
	ErrInvalidScale = errors.New("scale must be positive")
	ErrSurfaceBusy  = errors.New("surface has a render in flight")
	ErrConfig       = errors.New("rasterizer not configured")

	// ErrPageRange is returned for a page index beyond the document bounds.
	ErrPageRange = document.ErrPageRange
)

// MapHTTPStatus maps render errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrPageRange), errors.Is(err, ErrInvalidScale):
		return http.StatusBadRequest
	case errors.Is(err, ErrSurfaceBusy):
		return http.StatusConflict
	case errors.Is(err, ErrConfig):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
