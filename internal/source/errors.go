// Package source turns a selected file into the raw bytes of one pipeline run.
// A FileHandle is opaque and read once; byte-readers exist for local paths,
// in-memory buffers, scratch storage, and Google Cloud Storage objects.
package source

import (
	"errors"
	"net/http"
)

// Errors returned by Reader.Read.
var (
	ErrRead       = errors.New("unable to read file")
	ErrEmpty      = errors.New("empty or unreadable")
	ErrTooLarge   = errors.New("file exceeds maximum size")
	ErrNoOpener   = errors.New("file handle has no byte reader")
	ErrInvalidURI = errors.New("invalid object uri")
)

// MapHTTPStatus maps read errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrEmpty), errors.Is(err, ErrInvalidURI):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
