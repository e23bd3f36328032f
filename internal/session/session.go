// Package session runs one canvas view: it owns the scene, feeds gestures
// through the controller, and keeps the project store in step with
// optimistic local changes.
//
// Concurrency model: a single internal event loop (goroutine) owns the
// scene, the controller, the debounce table and the write queues. Public
// methods post closures to the loop and wait for them. Network requests run
// on their own goroutines and post their response handler back to the loop,
// so handlers never race with gestures. Handlers re-check that their target
// still exists before applying anything.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/starford/flowboard/internal/canvas"
	"github.com/starford/flowboard/internal/models"
)

// Defaults.
const (
	DefaultDebounce       = 500 * time.Millisecond
	DefaultRequestTimeout = 10 * time.Second
)

// Option configures a Session.
type Option func(*Session)

// WithNotifier sets the receiver of user-facing notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithTaskSink sets the receiver of tasks created by promotion.
func WithTaskSink(t TaskSink) Option {
	return func(s *Session) { s.tasks = t }
}

// WithRenderer sets a renderer that receives a frame after every change.
func WithRenderer(r Renderer) Option {
	return func(s *Session) { s.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithDebounce sets the position write delay.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

// WithRequestTimeout bounds every store request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithViewport sets the initial viewport of the controller.
func WithViewport(vp canvas.Viewport) Option {
	return func(s *Session) { s.viewport = vp }
}

// Session is one open canvas view.
type Session struct {
	notifier Notifier
	tasks    TaskSink
	renderer Renderer
	logger   *slog.Logger
	debounce time.Duration
	timeout  time.Duration
	viewport canvas.Viewport

	// Loop-owned state.
	remote   Remote
	scene    *canvas.Scene
	ctrl     *canvas.Controller
	timers   *debouncer
	writers  map[string]*positionWriter
	gen      uint64
	inflight int

	ctx    context.Context
	cancel context.CancelFunc

	ops     chan func()
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// New starts a session against remote. Call Load to fetch the canvas and
// Close to stop the session.
func New(remote Remote, opts ...Option) *Session {
	s := &Session{
		remote:   remote,
		notifier: nopNotifier{},
		tasks:    nopTaskSink{},
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		timeout:  DefaultRequestTimeout,
		scene:    canvas.NewScene(),
		writers:  make(map[string]*positionWriter),
		ops:      make(chan func(), 256),
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctrl = canvas.NewController(s.viewport)
	s.timers = newDebouncer(s.debounce, s.post)
	s.ctx, s.cancel = context.WithCancel(context.Background())

	go s.run()
	return s
}

func (s *Session) run() {
	defer close(s.stopped)

	for {
		select {
		case <-s.stopCh:
			s.timers.stopAll()
			return
		case op := <-s.ops:
			op()
			if s.renderer != nil {
				s.renderer.Render(canvas.Project(s.scene.Snapshot()))
			}
		}
	}
}

// Close stops the loop. Pending position writes are dropped and in-flight
// requests are cancelled.
func (s *Session) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.cancel()
		close(s.stopCh)
	}
	<-s.stopped
}

// post queues fn on the loop without waiting.
func (s *Session) post(fn func()) {
	if s.closed.Load() {
		return
	}
	select {
	case s.ops <- fn:
	case <-s.stopped:
	}
}

// do runs fn on the loop and waits for it. It reports false when the
// session is closed.
func (s *Session) do(fn func()) bool {
	if s.closed.Load() {
		return false
	}
	done := make(chan struct{})
	select {
	case s.ops <- func() { fn(); close(done) }:
	case <-s.stopped:
		return false
	}
	select {
	case <-done:
		return true
	case <-s.stopped:
		return false
	}
}

// call issues a store request. req runs on its own goroutine and returns
// the handler to run on the loop. Handlers from before a Reset are dropped.
func (s *Session) call(req func(ctx context.Context, r Remote) func()) {
	s.inflight++
	r, gen := s.remote, s.gen
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		handle := req(ctx, r)
		cancel()
		s.post(func() {
			s.inflight--
			if gen != s.gen || handle == nil {
				return
			}
			handle()
		})
	}()
}

// Load fetches the canvas and replaces the scene with it. The view is kept.
func (s *Session) Load(ctx context.Context) error {
	var (
		r   Remote
		gen uint64
	)
	if !s.do(func() { r, gen = s.remote, s.gen }) {
		return fmt.Errorf("session: closed")
	}

	c, err := r.Canvas(ctx)
	if err != nil {
		s.do(func() {
			s.notify(LevelError, "Failed to load canvas")
		})
		return fmt.Errorf("session: load canvas: %w", err)
	}

	s.do(func() {
		if gen != s.gen {
			return
		}
		s.dropWrites(true)
		s.scene.Load(c)
		s.logger.Debug("canvas loaded",
			slog.Int("notes", len(c.Notes)),
			slog.Int("connections", len(c.Connections)))
	})
	return nil
}

// Reset clears the scene and view for a project switch. When remote is not
// nil it replaces the store; responses to earlier requests are ignored.
func (s *Session) Reset(remote Remote) {
	s.do(func() {
		s.gen++
		s.dropWrites(false)
		s.scene.Reset()
		s.ctrl = canvas.NewController(s.ctrl.Viewport())
		if remote != nil {
			s.remote = remote
		}
	})
}

// dropWrites stops scheduled position writes and forgets queued ones. With
// keepInFlight, writers with a request in flight stay registered so the
// next write of that note still waits for it.
func (s *Session) dropWrites(keepInFlight bool) {
	s.timers.stopAll()
	if !keepInFlight {
		clear(s.writers)
		return
	}
	for id, w := range s.writers {
		if !w.inFlight {
			delete(s.writers, id)
			continue
		}
		w.queued = nil
	}
}

// Settle blocks until no position write is scheduled and no request is in
// flight.
func (s *Session) Settle(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		idle := false
		if !s.do(func() { idle = s.timers.len() == 0 && s.inflight == 0 }) {
			return fmt.Errorf("session: closed")
		}
		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Snapshot returns a copy of the scene state.
func (s *Session) Snapshot() canvas.Snapshot {
	var snap canvas.Snapshot
	s.do(func() { snap = s.scene.Snapshot() })
	return snap
}

// Frame returns the projection of the current state.
func (s *Session) Frame() canvas.Frame {
	return canvas.Project(s.Snapshot())
}

// Note returns a note from the scene.
func (s *Session) Note(id string) (models.Note, bool) {
	var (
		n  models.Note
		ok bool
	)
	s.do(func() { n, ok = s.scene.Note(id) })
	return n, ok
}

func (s *Session) notify(level Level, msg string) {
	s.notifier.Notify(Notification{Level: level, Message: msg})
}
