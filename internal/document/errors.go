// Package document decodes raw PDF bytes into a Document exposing its page
// count and per-page geometry. Decoding is delegated to a Decoder capability;
// the Loader bounds it with a deadline so a stalled decoder never hangs a run.
package document

import (
	"errors"
	"net/http"
)

// Errors returned by the Loader and Document.
var (
	ErrDecode      = errors.New("malformed or unsupported document")
	ErrEncrypted   = errors.New("document is encrypted")
	ErrEmptyBuffer = errors.New("empty buffer")
	ErrPageRange   = errors.New("page number out of range")
	ErrConfig      = errors.New("decoder not configured")
)

// MapHTTPStatus maps document errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrConfig):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrPageRange):
		return http.StatusBadRequest
	case errors.Is(err, ErrDecode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
