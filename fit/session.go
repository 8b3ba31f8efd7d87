package fit

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ResizeNotifier delivers a callback whenever the container may have changed
// size. Deliveries may be spurious; sessions filter out the ones that leave
// the content box unchanged.
type ResizeNotifier interface {
	Subscribe(fn func()) (unsubscribe func())
}

// SessionOptions wires a Session to its host environment.
type SessionOptions struct {
	// Scheduler coalesces runs to one per tick. Required.
	Scheduler Scheduler
	// Notifier triggers a run when the container content box changes.
	// Optional.
	Notifier ResizeNotifier
	// OnUpdate is called after every completed run.
	OnUpdate func(Result)
}

// Session keeps a text element fitted to its container over time.
type Session struct {
	id        string
	text      TextElement
	container Container
	cfg       Config
	onUpdate  func(Result)
	throttle  *Throttle

	running  atomic.Bool
	disposed atomic.Bool

	mu          sync.Mutex
	dims        [2]float64
	haveDims    bool
	last        Result
	unsubscribe func()
}

// Start validates the configuration, subscribes to resize notifications and
// schedules the first run.
func Start(text TextElement, container Container, so SessionOptions, opts ...Option) (*Session, error) {
	if so.Scheduler == nil {
		return nil, errors.New("fit: session requires a scheduler")
	}
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	s := &Session{
		id:        id.String(),
		text:      text,
		container: container,
		cfg:       cfg,
		onUpdate:  so.OnUpdate,
	}
	s.throttle = NewThrottle(so.Scheduler, s.tick)
	if so.Notifier != nil {
		s.unsubscribe = so.Notifier.Subscribe(s.resized)
	}
	s.throttle.Request()
	return s, nil
}

// ID identifies the session in diagnostics.
func (s *Session) ID() string { return s.id }

// Config returns the validated configuration of the session.
func (s *Session) Config() Config { return s.cfg }

// Last returns the result of the most recent completed run.
func (s *Session) Last() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Request schedules a run on the next tick, for example after the text
// content changed. Requests within one tick are coalesced.
func (s *Session) Request() bool {
	if s.disposed.Load() {
		return false
	}
	return s.throttle.Request()
}

// Run fits synchronously. Only one run executes at a time: a concurrent call
// fails with ErrBusy instead of racing on the element.
func (s *Session) Run() (Result, error) {
	if s.disposed.Load() {
		return Result{}, ErrDisposed
	}
	if !s.running.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer s.running.Store(false)

	res, err := run(s.text, s.container, s.cfg)
	if err != nil {
		return res, err
	}

	w, h := s.container.ContentSize()
	s.mu.Lock()
	s.dims = [2]float64{w, h}
	s.haveDims = true
	s.last = res
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(res)
	}
	return res, nil
}

// Dispose unsubscribes from resize notifications and drops any pending run.
// It is safe to call more than once.
func (s *Session) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}
	s.throttle.Stop()
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Disposed reports whether Dispose has been called.
func (s *Session) Disposed() bool { return s.disposed.Load() }

func (s *Session) tick() {
	// the in-flight run may have measured before the change that requested
	// this tick, so retry on the next one
	if _, err := s.Run(); errors.Is(err, ErrBusy) {
		s.throttle.Request()
	}
}

// resized filters notifications that did not change the content box.
func (s *Session) resized() {
	if s.disposed.Load() {
		return
	}
	w, h := s.container.ContentSize()
	s.mu.Lock()
	changed := !s.haveDims || s.dims[0] != w || s.dims[1] != h
	s.dims = [2]float64{w, h}
	s.haveDims = true
	s.mu.Unlock()

	if changed {
		s.throttle.Request()
	}
}

// Registry holds at most one live session per text element. Attaching a new
// session for an element disposes the previous one so observers never leak
// or race. Text elements must be comparable, typically pointers.
type Registry struct {
	mu       sync.Mutex
	sessions map[TextElement]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[TextElement]*Session)}
}

// Attach starts a session for text and replaces any previous one.
func (r *Registry) Attach(text TextElement, container Container, so SessionOptions, opts ...Option) (*Session, error) {
	s, err := Start(text, container, so, opts...)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	prev := r.sessions[text]
	r.sessions[text] = s
	r.mu.Unlock()

	if prev != nil {
		prev.Dispose()
	}
	return s, nil
}

// Get returns the live session of text, if any.
func (r *Registry) Get(text TextElement) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[text]
	return s, ok
}

// Detach disposes and forgets the session of text.
func (r *Registry) Detach(text TextElement) {
	r.mu.Lock()
	s := r.sessions[text]
	delete(r.sessions, text)
	r.mu.Unlock()
	if s != nil {
		s.Dispose()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close disposes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[TextElement]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Dispose()
	}
}
