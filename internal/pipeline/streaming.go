package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/JaimeStill/go-agents-orchestration/pkg/observability"
	"github.com/JaimeStill/pdf-reader/pkg/decode"
)

// StreamEventType names an event sent to stream clients.
type StreamEventType string

const (
	EventState         StreamEventType = "state"
	EventStageStart    StreamEventType = "stage.start"
	EventStageComplete StreamEventType = "stage.complete"
	EventStageError    StreamEventType = "stage.error"
	EventDecision      StreamEventType = "decision"
)

// StreamEvent is one server-sent event.
type StreamEvent struct {
	Type      StreamEventType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      map[string]any  `json:"data"`
}

// StreamingObserver converts stage events into StreamEvents on a buffered
// channel. Events are dropped rather than blocking a run when the consumer
// falls behind.
type StreamingObserver struct {
	events chan StreamEvent
	mu     sync.Mutex
	closed bool
}

func NewStreamingObserver(bufferSize int) *StreamingObserver {
	return &StreamingObserver{
		events: make(chan StreamEvent, bufferSize),
	}
}

func (o *StreamingObserver) Events() <-chan StreamEvent {
	return o.events
}

func (o *StreamingObserver) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.events)
	}
}

func (o *StreamingObserver) OnEvent(ctx context.Context, event observability.Event) {
	var out *StreamEvent

	switch event.Type {
	case observability.EventNodeStart:
		out = stageStart(event)
	case observability.EventNodeComplete:
		out = stageComplete(event)
	case observability.EventEdgeTransition:
		out = decision(event)
	}

	if out != nil {
		o.send(*out)
	}
}

// SendState forwards a published state to the stream.
func (o *StreamingObserver) SendState(s State) {
	o.send(StreamEvent{
		Type:      EventState,
		Timestamp: time.Now(),
		Data: map[string]any{
			"status":     string(s.Status),
			"token":      uint64(s.Token),
			"file_name":  s.FileName,
			"page_count": s.PageCount,
			"message":    s.Message,
			"readout":    s.Readout(),
		},
	})
}

func (o *StreamingObserver) send(event StreamEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.events <- event:
	default:
	}
}

func stageStart(event observability.Event) *StreamEvent {
	data, err := decode.FromMap[StageData](event.Data)
	if err != nil {
		return nil
	}
	return &StreamEvent{
		Type:      EventStageStart,
		Timestamp: event.Timestamp,
		Data: map[string]any{
			"stage":     string(data.Stage),
			"token":     uint64(data.Token),
			"file_name": data.FileName,
		},
	}
}

func stageComplete(event observability.Event) *StreamEvent {
	data, err := decode.FromMap[StageData](event.Data)
	if err != nil {
		return nil
	}
	if data.Error {
		return &StreamEvent{
			Type:      EventStageError,
			Timestamp: event.Timestamp,
			Data: map[string]any{
				"stage":   string(data.Stage),
				"token":   uint64(data.Token),
				"message": data.ErrorMessage,
			},
		}
	}
	return &StreamEvent{
		Type:      EventStageComplete,
		Timestamp: event.Timestamp,
		Data: map[string]any{
			"stage":       string(data.Stage),
			"token":       uint64(data.Token),
			"duration_ms": data.DurationMs,
		},
	}
}

func decision(event observability.Event) *StreamEvent {
	data, err := decode.FromMap[TransitionData](event.Data)
	if err != nil {
		return nil
	}
	return &StreamEvent{
		Type:      EventDecision,
		Timestamp: event.Timestamp,
		Data: map[string]any{
			"from":             string(data.From),
			"to":               string(data.To),
			"token":            uint64(data.Token),
			"predicate_result": data.PredicateResult,
		},
	}
}
