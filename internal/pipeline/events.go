package pipeline

import (
	"github.com/JaimeStill/pdf-reader/internal/document"
	"github.com/JaimeStill/pdf-reader/internal/render"
)

// Event is an input to Reduce. Every event carries the token of the run it
// belongs to.
type Event interface {
	RunToken() RunToken
}

// Selected records a validated selection under a freshly minted token.
type Selected struct {
	Token    RunToken
	FileName string
}

// Decoded records a successful decode.
type Decoded struct {
	Token     RunToken
	PageCount int

	// Document is handed to the render stage; Reduce ignores it.
	Document *document.Document
}

// Rendered records a successful render of the first page into an
// off-screen surface that the controller commits to the shared one.
type Rendered struct {
	Token   RunToken
	Surface *render.Surface
}

// StageFailed records the failure of one stage.
type StageFailed struct {
	Token RunToken
	Stage Stage
	Err   error
}

func (e Selected) RunToken() RunToken    { return e.Token }
func (e Decoded) RunToken() RunToken     { return e.Token }
func (e Rendered) RunToken() RunToken    { return e.Token }
func (e StageFailed) RunToken() RunToken { return e.Token }
