package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/go-agents-orchestration/pkg/observability"
	"github.com/JaimeStill/pdf-reader/internal/document"
	"github.com/JaimeStill/pdf-reader/internal/lifecycle"
	"github.com/JaimeStill/pdf-reader/internal/render"
	"github.com/JaimeStill/pdf-reader/internal/source"
	"github.com/docker/go-units"
	"github.com/google/uuid"
)

// FirstPage is the only page a run renders.
const FirstPage = 1

// Controller drives read, decode, and render for the most recent selection.
//
// A single loop goroutine owns the published State and the shared Surface.
// Stages run on per-run goroutines and report back through the loop, which
// applies their results with Reduce and discards those of superseded runs.
type Controller struct {
	reader   *source.Reader
	loader   *document.Loader
	renderer *render.Renderer
	scale    float64
	logger   *slog.Logger
	observer *MultiObserver
	surface  *render.Surface

	ctx    context.Context
	cancel context.CancelFunc

	selects   chan selectRequest
	events    chan Event
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	runs      sync.WaitGroup

	mu      sync.RWMutex
	state   State
	current *run
	last    RunToken

	subMu       sync.Mutex
	subscribers map[int]chan State
	nextSub     int
}

type selectRequest struct {
	file  source.FileHandle
	reply chan RunToken
}

type run struct {
	token   RunToken
	id      string
	file    source.FileHandle
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time

	settleOnce sync.Once
	settled    chan struct{}
	result     State
	err        error

	releaseOnce sync.Once
}

func (r *run) release() {
	r.releaseOnce.Do(func() {
		if r.file.Release != nil {
			r.file.Release()
		}
	})
}

// New creates a Controller and starts its loop. Every stage component is
// required; a missing one means the pipeline cannot serve a selection.
func New(reader *source.Reader, loader *document.Loader, renderer *render.Renderer, scale float64, logger *slog.Logger) (*Controller, error) {
	if reader == nil || loader == nil || renderer == nil {
		return nil, fmt.Errorf("%w: reader, loader, and renderer are required", ErrNotReady)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("%w: got %g", render.ErrInvalidScale, scale)
	}

	logger = logger.With("system", "pipeline")
	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		reader:      reader,
		loader:      loader,
		renderer:    renderer,
		scale:       scale,
		logger:      logger,
		observer:    NewMultiObserver(NewLogObserver(logger)),
		surface:     render.NewSurface(),
		ctx:         ctx,
		cancel:      cancel,
		selects:     make(chan selectRequest),
		events:      make(chan Event, 16),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		state:       Idle(),
		subscribers: make(map[int]chan State),
	}

	go c.loop()
	return c, nil
}

// Start ties the controller to the service lifecycle.
func (c *Controller) Start(lc *lifecycle.Coordinator) error {
	c.logger.Info("pipeline ready", "scale", c.scale, "density", c.renderer.Density())

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		c.logger.Info("shutting down pipeline")
		c.Close()
	})

	return nil
}

// Close stops the loop, cancels in-flight runs, and waits for their
// goroutines to return. Subscriber channels are closed.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		<-c.stopped
	})
}

// Select validates file and starts a run for it, superseding any run in
// flight. Validation failures return without changing state. When Select
// returns a token, the published state is Loading for that token.
func (c *Controller) Select(ctx context.Context, file source.FileHandle) (RunToken, error) {
	if file.Name == "" && file.Open == nil {
		return 0, ErrNoFile
	}
	if !file.IsPDF() {
		c.logger.Warn("selection rejected", "file", file.Name, "content_type", file.ContentType)
		return 0, fmt.Errorf("%w: %s has type %q", ErrNotPDF, file.Name, file.ContentType)
	}

	req := selectRequest{file: file, reply: make(chan RunToken, 1)}

	select {
	case c.selects <- req:
	case <-c.done:
		return 0, ErrClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case token := <-req.reply:
		return token, nil
	case <-c.stopped:
		return 0, ErrClosed
	}
}

// State returns the current published state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Surface returns the shared output surface. It only ever holds the
// pixels of the current run.
func (c *Controller) Surface() *render.Surface {
	return c.surface
}

// Observe registers obs for stage events and returns a function that
// removes it.
func (c *Controller) Observe(obs observability.Observer) func() {
	return c.observer.Add(obs)
}

// Subscribe returns a channel that receives every published state,
// starting with the current one. A slow subscriber skips intermediate
// states but always receives the latest. The returned function cancels
// the subscription.
func (c *Controller) Subscribe(buffer int) (<-chan State, func()) {
	ch := make(chan State, max(buffer, 1))

	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = ch
	ch <- c.State()
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			if _, ok := c.subscribers[id]; ok {
				delete(c.subscribers, id)
				close(ch)
			}
		})
	}
}

// Wait blocks until the run for token is terminal and returns its final
// state. A run replaced by a newer selection returns ErrSuperseded.
func (c *Controller) Wait(ctx context.Context, token RunToken) (State, error) {
	c.mu.RLock()
	r := c.current
	last := c.last
	c.mu.RUnlock()

	switch {
	case token == 0 || token > last:
		return State{}, fmt.Errorf("%w: %d", ErrUnknownRun, token)
	case r == nil || token < r.token:
		return State{}, fmt.Errorf("%w: %d", ErrSuperseded, token)
	}

	select {
	case <-r.settled:
		return r.result, r.err
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

func (c *Controller) loop() {
	defer close(c.stopped)

	for {
		select {
		case <-c.done:
			c.shutdown()
			return
		case req := <-c.selects:
			req.reply <- c.start(req.file)
		case ev := <-c.events:
			c.apply(ev)
		}
	}
}

func (c *Controller) start(file source.FileHandle) RunToken {
	ctx, cancel := context.WithCancel(c.ctx)

	c.mu.Lock()
	c.last++
	r := &run{
		token:   c.last,
		id:      uuid.NewString(),
		file:    file,
		ctx:     ctx,
		cancel:  cancel,
		started: time.Now(),
		settled: make(chan struct{}),
	}
	prev := c.current
	c.current = r
	c.state = Reduce(c.state, Selected{Token: r.token, FileName: file.Name})
	next := c.state
	c.mu.Unlock()

	if prev != nil {
		c.settle(prev, State{}, ErrSuperseded)
		c.logger.Info("run superseded", "token", prev.token, "by", r.token)
	}

	c.surface.Clear()
	c.publish(next)

	c.logger.Info("run started", "token", r.token, "run_id", r.id, "file", file.Name)
	c.runs.Go(func() { c.execute(r) })

	return r.token
}

func (c *Controller) apply(ev Event) {
	c.mu.Lock()
	prev := c.state
	next := Reduce(prev, ev)
	c.state = next
	r := c.current
	c.mu.Unlock()

	if r == nil || ev.RunToken() != r.token {
		c.logger.Debug("discarded stale result", "token", ev.RunToken(), "event", fmt.Sprintf("%T", ev))
		return
	}

	if next != prev {
		c.publish(next)
	}

	switch e := ev.(type) {
	case Decoded:
		if next.Status != StatusReady {
			return
		}
		rendering := e.PageCount > 0
		c.emit(r.ctx, observability.EventEdgeTransition, TransitionData{
			From:            StageDecode,
			To:              StageRender,
			Token:           r.token,
			PredicateName:   "page_count > 0",
			PredicateResult: rendering,
		})

		if !rendering {
			c.settle(r, next, nil)
			return
		}
		c.runs.Go(func() { c.renderFirst(r, e.Document) })

	case Rendered:
		if next.Status != StatusReady {
			return
		}
		c.surface.CopyFrom(e.Surface)
		c.settle(r, next, nil)
		c.logger.Info("run complete",
			"token", r.token,
			"file", r.file.Name,
			"pages", next.PageCount,
			"duration", time.Since(r.started).Round(time.Millisecond))

	case StageFailed:
		if next.Status != StatusError {
			return
		}
		c.settle(r, next, &StageError{Stage: e.Stage, Err: e.Err})
		c.logger.Warn("run failed", "token", r.token, "file", r.file.Name, "error", next.Message)
	}
}

func (c *Controller) shutdown() {
	c.cancel()

	c.mu.RLock()
	r := c.current
	c.mu.RUnlock()
	if r != nil {
		c.settle(r, State{}, ErrClosed)
	}

	c.runs.Wait()

	c.subMu.Lock()
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
	c.subMu.Unlock()
}

func (c *Controller) settle(r *run, s State, err error) {
	r.settleOnce.Do(func() {
		r.result = s
		r.err = err
		close(r.settled)
	})
	r.cancel()
}

func (c *Controller) publish(s State) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for _, ch := range c.subscribers {
		select {
		case ch <- s:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

// post hands a stage result to the loop. Results produced after Close are dropped.
func (c *Controller) post(ev Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Controller) execute(r *run) {
	var data []byte
	err := c.stage(r, StageRead, func(ctx context.Context) error {
		var err error
		data, err = c.reader.Read(ctx, r.file)
		return err
	})
	r.release()
	if err != nil {
		c.post(StageFailed{Token: r.token, Stage: StageRead, Err: err})
		return
	}

	c.logger.Info("file read", "token", r.token, "file", r.file.Name, "size", units.HumanSize(float64(len(data))))

	if r.ctx.Err() != nil {
		return
	}

	var doc *document.Document
	err = c.stage(r, StageDecode, func(ctx context.Context) error {
		var err error
		doc, err = c.loader.Decode(ctx, data)
		return err
	})
	if err != nil {
		c.post(StageFailed{Token: r.token, Stage: StageDecode, Err: err})
		return
	}

	c.post(Decoded{Token: r.token, PageCount: doc.PageCount(), Document: doc})
}

func (c *Controller) renderFirst(r *run, doc *document.Document) {
	offscreen := render.NewSurface()
	err := c.stage(r, StageRender, func(ctx context.Context) error {
		return c.renderer.RenderPage(ctx, doc, FirstPage, offscreen, c.scale)
	})
	if err != nil {
		c.post(StageFailed{Token: r.token, Stage: StageRender, Err: err})
		return
	}

	c.post(Rendered{Token: r.token, Surface: offscreen})
}

// stage runs fn under the run's context, reporting start and completion to
// observers. A panic in fn is returned as an error.
func (c *Controller) stage(r *run, stage Stage, fn func(ctx context.Context) error) (err error) {
	data := StageData{
		Stage:    stage,
		Token:    r.token,
		RunID:    r.id,
		FileName: r.file.Name,
	}
	c.emit(r.ctx, observability.EventNodeStart, data)

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
		data.DurationMs = time.Since(start).Milliseconds()
		if err != nil {
			data.Error = true
			data.ErrorMessage = err.Error()
		}
		c.emit(r.ctx, observability.EventNodeComplete, data)
	}()

	return fn(r.ctx)
}

func (c *Controller) emit(ctx context.Context, typ observability.EventType, data any) {
	event, err := NewEvent(typ, data)
	if err != nil {
		c.logger.Error("failed to emit event", "type", typ, "error", err)
		return
	}
	c.observer.OnEvent(ctx, event)
}
