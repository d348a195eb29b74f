package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/pdf-reader/internal/routes"
	"github.com/JaimeStill/pdf-reader/internal/source"
	"github.com/JaimeStill/pdf-reader/internal/storage"
	"github.com/JaimeStill/pdf-reader/pkg/handlers"
)

// SelectResponse is returned when a selection starts a run.
type SelectResponse struct {
	Token RunToken `json:"token"`
	State State    `json:"state"`
}

// StateResponse is the published state with its status readout.
type StateResponse struct {
	State
	Readout string `json:"readout"`
}

// Handler exposes the controller over HTTP. A multipart upload is the
// file-selection event.
type Handler struct {
	ctrl       *Controller
	store      storage.System
	maxSize    int64
	bufferSize int
	logger     *slog.Logger
}

func NewHandler(ctrl *Controller, store storage.System, maxSize int64, logger *slog.Logger) *Handler {
	return &Handler{
		ctrl:       ctrl,
		store:      store,
		maxSize:    maxSize,
		bufferSize: 64,
		logger:     logger.With("handler", "reader"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/api/reader",
		Description: "File selection, pipeline state, and rendered surface",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/select", Handler: h.Select},
			{Method: "GET", Pattern: "/state", Handler: h.State},
			{Method: "GET", Pattern: "/surface", Handler: h.Surface},
			{Method: "GET", Pattern: "/events", Handler: h.Events},
			{Method: "GET", Pattern: "/runs/{token}", Handler: h.Wait},
		},
	}
}

// Select accepts a multipart form with the selected file in the "file" field.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	if h.maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+(1<<20))
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			err = fmt.Errorf("%w: %w", source.ErrRead, source.ErrTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			err = ErrNoFile
		default:
			err = fmt.Errorf("%w: %v", ErrValidation, err)
		}
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer file.Close()

	handle, err := source.Spill(r.Context(), h.store, file, header, h.maxSize, h.logger)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	token, err := h.ctrl.Select(r.Context(), handle)
	if err != nil {
		if handle.Release != nil {
			handle.Release()
		}
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, SelectResponse{
		Token: token,
		State: h.ctrl.State(),
	})
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	s := h.ctrl.State()
	handlers.RespondJSON(w, http.StatusOK, StateResponse{State: s, Readout: s.Readout()})
}

// Surface writes the current surface as PNG, or 204 while it is blank.
func (h *Handler) Surface(w http.ResponseWriter, r *http.Request) {
	surface := h.ctrl.Surface()
	if surface.Blank() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Surface-Density", strconv.FormatFloat(surface.Density(), 'f', -1, 64))
	w.Header().Set("X-Run-Token", strconv.FormatUint(uint64(h.ctrl.State().Token), 10))

	if err := surface.EncodePNG(w); err != nil {
		h.logger.Error("failed to encode surface", "error", err)
	}
}

// Wait blocks until the run is terminal and returns its final state.
func (h *Handler) Wait(w http.ResponseWriter, r *http.Request) {
	token, err := strconv.ParseUint(r.PathValue("token"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid run token: %w", err))
		return
	}

	s, err := h.ctrl.Wait(r.Context(), RunToken(token))
	if err != nil {
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			handlers.RespondJSON(w, http.StatusOK, StateResponse{State: s, Readout: s.Readout()})
			return
		}
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, StateResponse{State: s, Readout: s.Readout()})
}

// Events streams published states and stage events as server-sent events
// until the client disconnects.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	observer := NewStreamingObserver(h.bufferSize)
	remove := h.ctrl.Observe(observer)
	states, unsubscribe := h.ctrl.Subscribe(1)

	defer func() {
		remove()
		unsubscribe()
		observer.Close()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	go func() {
		for s := range states {
			observer.SendState(s)
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-observer.Events():
			if !ok {
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event", "error", err)
				continue
			}

			fmt.Fprintf(w, "event: %s\n", event.Type)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
