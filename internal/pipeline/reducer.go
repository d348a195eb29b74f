package pipeline

// Reduce returns the state that follows s after e. It performs no I/O.
//
// A selection is accepted only if its token is newer than the current one.
// Any other event whose token is not current is stale and leaves s unchanged.
func Reduce(s State, e Event) State {
	if sel, ok := e.(Selected); ok {
		if sel.Token <= s.Token {
			return s
		}
		return Loading(sel.Token, sel.FileName)
	}

	if e.RunToken() != s.Token {
		return s
	}

	switch ev := e.(type) {
	case Decoded:
		if s.Status != StatusLoading {
			return s
		}
		return Ready(s.Token, s.FileName, ev.PageCount)

	case Rendered:
		return s

	case StageFailed:
		if ev.Stage == StageRender && s.Status != StatusReady {
			return s
		}
		if ev.Stage != StageRender && s.Status != StatusLoading {
			return s
		}
		return Failed(s.Token, s.FileName, (&StageError{Stage: ev.Stage, Err: ev.Err}).Error())
	}

	return s
}
