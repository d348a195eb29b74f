package pipeline

import "fmt"

// RunToken identifies one selection's run. Tokens strictly increase.
type RunToken uint64

// Stage names a step of a run.
type Stage string

const (
	StageRead   Stage = "read"
	StageDecode Stage = "decode"
	StageRender Stage = "render"
)

// Status is the tag of the published State.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// State is the published pipeline state: Idle, Loading{FileName},
// Ready{FileName, PageCount}, or Error{FileName, Message}. Token is the run
// the state belongs to; it is zero only while Idle.
type State struct {
	Status    Status   `json:"status"`
	Token     RunToken `json:"token"`
	FileName  string   `json:"file_name,omitempty"`
	PageCount int      `json:"page_count"`
	Message   string   `json:"message,omitempty"`
}

func Idle() State {
	return State{Status: StatusIdle}
}

func Loading(token RunToken, fileName string) State {
	return State{Status: StatusLoading, Token: token, FileName: fileName}
}

func Ready(token RunToken, fileName string, pageCount int) State {
	return State{Status: StatusReady, Token: token, FileName: fileName, PageCount: pageCount}
}

func Failed(token RunToken, fileName, message string) State {
	return State{Status: StatusError, Token: token, FileName: fileName, Message: message}
}

// Terminal reports whether the state is stable until the next selection.
func (s State) Terminal() bool {
	return s.Status == StatusReady || s.Status == StatusError
}

// Readout renders the state as the one-line status shown to the user.
func (s State) Readout() string {
	switch s.Status {
	case StatusLoading:
		return "Loading..."
	case StatusReady:
		if s.PageCount == 1 {
			return s.FileName + " (1 page)"
		}
		return fmt.Sprintf("%s (%d pages)", s.FileName, s.PageCount)
	case StatusError:
		return s.FileName + ": " + s.Message
	default:
		return "No file selected"
	}
}
