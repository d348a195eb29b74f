package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/go-agents-orchestration/pkg/observability"
	"github.com/JaimeStill/pdf-reader/pkg/decode"
)

// StageData is the payload of stage start and complete events.
type StageData struct {
	Stage        Stage    `json:"node"`
	Token        RunToken `json:"token"`
	RunID        string   `json:"run_id"`
	FileName     string   `json:"file_name"`
	Error        bool     `json:"error,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
	DurationMs   int64    `json:"duration_ms,omitempty"`
}

// TransitionData is the payload of the decode-to-render decision event.
type TransitionData struct {
	From            Stage    `json:"from"`
	To              Stage    `json:"to"`
	Token           RunToken `json:"token"`
	PredicateName   string   `json:"predicate_name"`
	PredicateResult bool     `json:"predicate_result"`
}

// NewEvent builds an event of type typ with data encoded as its payload map.
func NewEvent(typ observability.EventType, data any) (observability.Event, error) {
	m, err := decode.ToMap(data)
	if err != nil {
		return observability.Event{}, fmt.Errorf("encode %s event: %w", typ, err)
	}
	return observability.Event{Type: typ, Timestamp: time.Now(), Data: m}, nil
}

// MultiObserver fans events out to a changing set of observers.
type MultiObserver struct {
	mu        sync.RWMutex
	observers map[int]observability.Observer
	nextID    int
}

func NewMultiObserver(observers ...observability.Observer) *MultiObserver {
	m := &MultiObserver{observers: make(map[int]observability.Observer)}
	for _, obs := range observers {
		m.Add(obs)
	}
	return m
}

// Add registers obs and returns a function that removes it.
func (m *MultiObserver) Add(obs observability.Observer) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.observers[id] = obs

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

func (m *MultiObserver) OnEvent(ctx context.Context, event observability.Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, obs := range m.observers {
		obs.OnEvent(ctx, event)
	}
}

// LogObserver writes stage events to a structured logger.
type LogObserver struct {
	logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnEvent(ctx context.Context, event observability.Event) {
	switch event.Type {
	case observability.EventNodeStart:
		data, err := decode.FromMap[StageData](event.Data)
		if err != nil {
			o.logger.Error("failed to decode stage start", "error", err)
			return
		}
		o.logger.Debug("stage started", "stage", data.Stage, "token", data.Token, "run_id", data.RunID)
	case observability.EventNodeComplete:
		data, err := decode.FromMap[StageData](event.Data)
		if err != nil {
			o.logger.Error("failed to decode stage complete", "error", err)
			return
		}
		if data.Error {
			o.logger.Warn("stage failed",
				"stage", data.Stage, "token", data.Token, "run_id", data.RunID,
				"file", data.FileName, "error", data.ErrorMessage, "duration_ms", data.DurationMs)
			return
		}
		o.logger.Info("stage completed",
			"stage", data.Stage, "token", data.Token, "run_id", data.RunID, "duration_ms", data.DurationMs)
	case observability.EventEdgeTransition:
		data, err := decode.FromMap[TransitionData](event.Data)
		if err != nil {
			o.logger.Error("failed to decode transition", "error", err)
			return
		}
		o.logger.Debug("stage transition",
			"from", data.From, "to", data.To, "token", data.Token, "render", data.PredicateResult)
	default:
		o.logger.Debug("unhandled event", "type", event.Type)
	}
}
