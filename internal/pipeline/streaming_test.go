package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/JaimeStill/go-agents-orchestration/pkg/observability"
	"github.com/JaimeStill/pdf-reader/internal/pipeline"
)

func receive(t *testing.T, events <-chan pipeline.StreamEvent) pipeline.StreamEvent {
	t.Helper()
	select {
	case event := <-events:
		return event
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timed out waiting for event")
		return pipeline.StreamEvent{}
	}
}

func TestStreamingObserver_SendState(t *testing.T) {
	obs := pipeline.NewStreamingObserver(10)

	obs.SendState(pipeline.Ready(4, "doc.pdf", 3))

	event := receive(t, obs.Events())
	if event.Type != pipeline.EventState {
		t.Errorf("Type = %q, want %q", event.Type, pipeline.EventState)
	}
	if event.Data["status"] != "ready" {
		t.Errorf("Data[status] = %v, want ready", event.Data["status"])
	}
	if event.Data["readout"] != "doc.pdf (3 pages)" {
		t.Errorf("Data[readout] = %v", event.Data["readout"])
	}
	if event.Data["token"] != uint64(4) {
		t.Errorf("Data[token] = %v, want 4", event.Data["token"])
	}
}

func TestStreamingObserver_OnEvent(t *testing.T) {
	tests := []struct {
		name  string
		event observability.Event
		want  pipeline.StreamEventType
		key   string
		value any
	}{
		{
			name: "stage start",
			event: observability.Event{
				Type: observability.EventNodeStart,
				Data: map[string]any{"node": "read", "token": uint64(1), "file_name": "a.pdf"},
			},
			want:  pipeline.EventStageStart,
			key:   "stage",
			value: "read",
		},
		{
			name: "stage complete",
			event: observability.Event{
				Type: observability.EventNodeComplete,
				Data: map[string]any{"node": "decode", "token": uint64(1), "duration_ms": int64(12)},
			},
			want:  pipeline.EventStageComplete,
			key:   "duration_ms",
			value: int64(12),
		},
		{
			name: "stage error",
			event: observability.Event{
				Type: observability.EventNodeComplete,
				Data: map[string]any{"node": "decode", "token": uint64(1), "error": true, "error_message": "bad header"},
			},
			want:  pipeline.EventStageError,
			key:   "message",
			value: "bad header",
		},
		{
			name: "decision",
			event: observability.Event{
				Type: observability.EventEdgeTransition,
				Data: map[string]any{"from": "decode", "to": "render", "token": uint64(1), "predicate_result": false},
			},
			want:  pipeline.EventDecision,
			key:   "predicate_result",
			value: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := pipeline.NewStreamingObserver(10)
			tt.event.Timestamp = time.Now()
			obs.OnEvent(context.Background(), tt.event)

			event := receive(t, obs.Events())
			if event.Type != tt.want {
				t.Errorf("Type = %q, want %q", event.Type, tt.want)
			}
			if event.Data[tt.key] != tt.value {
				t.Errorf("Data[%s] = %v (%T), want %v", tt.key, event.Data[tt.key], event.Data[tt.key], tt.value)
			}
		})
	}
}

func TestStreamingObserver_DropsWhenFull(t *testing.T) {
	obs := pipeline.NewStreamingObserver(1)

	obs.SendState(pipeline.Idle())
	obs.SendState(pipeline.Loading(1, "a.pdf"))

	event := receive(t, obs.Events())
	if event.Data["status"] != "idle" {
		t.Errorf("first event status = %v, want idle", event.Data["status"])
	}

	select {
	case e := <-obs.Events():
		t.Errorf("unexpected buffered event %+v", e)
	default:
	}
}

func TestStreamingObserver_Close(t *testing.T) {
	obs := pipeline.NewStreamingObserver(10)

	obs.Close()
	obs.Close()
	obs.SendState(pipeline.Idle())

	if _, ok := <-obs.Events(); ok {
		t.Error("Expected channel to be closed")
	}
}

func TestMultiObserver_AddRemove(t *testing.T) {
	first := &recordingObserver{}
	second := &recordingObserver{}

	multi := pipeline.NewMultiObserver(first)
	remove := multi.Add(second)

	event := observability.Event{Type: observability.EventNodeStart, Timestamp: time.Now()}
	multi.OnEvent(context.Background(), event)

	remove()
	multi.OnEvent(context.Background(), event)

	if n := len(first.snapshot()); n != 2 {
		t.Errorf("first observer got %d events, want 2", n)
	}
	if n := len(second.snapshot()); n != 1 {
		t.Errorf("second observer got %d events, want 1", n)
	}
}
