package watch

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ByLCY/autofit/dsl"
	"github.com/ByLCY/autofit/fit"
	"github.com/ByLCY/autofit/layout"
)

// RenderFunc receives a snapshot every time at least one frame was refitted.
type RenderFunc func(*layout.Result) error

// Options wires a Live document to its environment.
type Options struct {
	Build     layout.BuildOptions
	Scheduler fit.Scheduler
	Render    RenderFunc
	Log       *zap.Logger
}

// Live keeps every frame of a document fitted by a long-lived session and
// re-renders at most once per tick. Apply and the session callbacks run on
// the scheduler goroutine, so the stage is never mutated concurrently.
type Live struct {
	opts     Options
	log      *zap.Logger
	sessions *fit.Registry
	render   *fit.Throttle

	mu      sync.Mutex
	stage   *layout.Stage
	renders int
	lastErr error
}

// NewLive builds the document and attaches one session per frame. Nothing is
// fitted until the scheduler ticks.
func NewLive(doc *dsl.Document, data any, opts Options) (*Live, error) {
	if opts.Scheduler == nil {
		return nil, errors.New("watch: scheduler is required")
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	l := &Live{
		opts:     opts,
		log:      opts.Log,
		sessions: fit.NewRegistry(),
	}
	l.render = fit.NewThrottle(opts.Scheduler, l.renderNow)
	if err := l.rebuild(doc, data); err != nil {
		return nil, err
	}
	return l, nil
}

// Apply brings the live document in line with a new revision of the source.
// Geometry changes reach the sessions through resize notifications, content
// changes through explicit requests. Structural changes rebuild everything.
func (l *Live) Apply(doc *dsl.Document, data any) error {
	l.mu.Lock()
	stage := l.stage
	l.mu.Unlock()

	changed, err := stage.Update(doc, data)
	if errors.Is(err, layout.ErrStructureChanged) {
		l.log.Info("Document structure changed, rebuilding")
		return l.rebuild(doc, data)
	}
	if err != nil {
		return err
	}
	for _, name := range changed {
		node, _ := stage.Node(name)
		if s, ok := l.sessions.Get(node.Text); ok {
			s.Request()
		}
	}
	// style-only edits still need a fresh frame
	l.render.Request()
	return nil
}

func (l *Live) rebuild(doc *dsl.Document, data any) error {
	stage, err := layout.NewStage(doc, data, l.opts.Build)
	if err != nil {
		return err
	}
	l.sessions.Close()

	for _, node := range stage.Nodes() {
		so := fit.SessionOptions{
			Scheduler: l.opts.Scheduler,
			Notifier:  node.Box,
			OnUpdate:  func(r fit.Result) { l.fitted(node, r) },
		}
		s, err := l.sessions.Attach(node.Text, node.Box, so, fit.WithConfig(node.Config))
		if err != nil {
			l.sessions.Close()
			return fmt.Errorf("文本框 %s: %w", node.Name, err)
		}
		l.log.Debug("Session attached", zap.String("frame", node.Name), zap.String("session", s.ID()))
	}

	l.mu.Lock()
	l.stage = stage
	l.mu.Unlock()
	return nil
}

func (l *Live) fitted(node *layout.Node, r fit.Result) {
	node.Record(r)
	if err := node.Text.Err(); err != nil {
		l.log.Error("Typesetting failed", zap.String("frame", node.Name), zap.Error(err))
	}
	l.render.Request()
}

func (l *Live) renderNow() {
	res := l.Result()
	var err error
	if l.opts.Render != nil {
		err = l.opts.Render(res)
	}
	l.mu.Lock()
	l.renders++
	l.lastErr = err
	l.mu.Unlock()
	if err != nil {
		l.log.Error("Render failed", zap.Error(err))
	}
}

// Result returns a snapshot of the current layout.
func (l *Live) Result() *layout.Result {
	l.mu.Lock()
	stage := l.stage
	l.mu.Unlock()
	return stage.Result()
}

// Renders returns how many renders ran and the error of the latest one.
func (l *Live) Renders() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.renders, l.lastErr
}

// Sessions returns the number of attached sessions.
func (l *Live) Sessions() int { return l.sessions.Len() }

// Close disposes every session and drops a pending render.
func (l *Live) Close() {
	l.render.Stop()
	l.sessions.Close()
}
