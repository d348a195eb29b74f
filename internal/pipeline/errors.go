// Package pipeline orchestrates one load-and-render run per file selection.
//
// A Controller owns the published State and the shared Surface. Every
// selection mints a new RunToken; stage results carry the token of the run
// that produced them and are applied only while that token is current, so the
// last selection wins regardless of completion order.
package pipeline

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/pdf-reader/internal/document"
	"github.com/JaimeStill/pdf-reader/internal/render"
	"github.com/JaimeStill/pdf-reader/internal/source"
)

// Errors returned by the Controller.
var (
	ErrValidation = errors.New("invalid selection")
	ErrNoFile     = fmt.Errorf("%w: no file selected", ErrValidation)
	ErrNotPDF     = fmt.Errorf("%w: file is not a PDF", ErrValidation)
	ErrNotReady   = errors.New("pipeline is not ready")
	ErrClosed     = errors.New("pipeline is closed")
	ErrSuperseded = errors.New("run superseded by a newer selection")
	ErrUnknownRun = errors.New("unknown run token")
)

// StageError attaches a failure to the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// MapHTTPStatus maps pipeline and stage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownRun):
		return http.StatusNotFound
	case errors.Is(err, ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, ErrNotReady), errors.Is(err, ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, source.ErrRead):
		return source.MapHTTPStatus(err)
	case errors.Is(err, document.ErrDecode):
		return document.MapHTTPStatus(err)
	case errors.Is(err, render.ErrRender):
		return render.MapHTTPStatus(err)
	default:
		return http.StatusInternalServerError
	}
}
