package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ByLCY/autofit/fit"
	"github.com/ByLCY/autofit/layout"
)

// LogObserver writes fit diagnostics of one frame to a zap logger.
type LogObserver struct {
	log *zap.Logger
}

// NewLogObserver returns an observer logging with the frame name attached.
func NewLogObserver(log *zap.Logger, frame string) *LogObserver {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogObserver{log: log.With(zap.String("frame", frame))}
}

func (o *LogObserver) Warn(w fit.Warning) {
	o.log.Warn(w.Message,
		zap.Stringer("kind", w.Kind),
		zap.Int("siblings", w.Siblings))
}

func (o *LogObserver) Finished(r fit.Result) {
	if r.Skipped {
		o.log.Debug("Empty text, search skipped", zap.Stringer("mode", r.Mode))
		return
	}
	o.log.Debug("Font size fitted",
		zap.Stringer("mode", r.Mode),
		zap.Float64("font_size_px", r.FontSizePx),
		zap.Int("iterations", r.Iterations),
		zap.Duration("elapsed", r.Elapsed))
}

// TraceObserver turns every finished run of one frame into a span. Warnings
// raised during the run become span events.
type TraceObserver struct {
	tracer *Tracer
	ctx    context.Context
	frame  string

	mu      sync.Mutex
	pending []fit.Warning
}

// Observer returns a TraceObserver for frame, parenting spans under ctx.
func (t *Tracer) Observer(ctx context.Context, frame string) *TraceObserver {
	return &TraceObserver{tracer: t, ctx: ctx, frame: frame}
}

func (o *TraceObserver) Warn(w fit.Warning) {
	o.mu.Lock()
	o.pending = append(o.pending, w)
	o.mu.Unlock()
}

func (o *TraceObserver) Finished(r fit.Result) {
	o.mu.Lock()
	warnings := o.pending
	o.pending = nil
	o.mu.Unlock()

	end := time.Now()
	_, span := o.tracer.Start(o.ctx, "fit.run",
		trace.WithTimestamp(end.Add(-r.Elapsed)),
		trace.WithAttributes(
			attribute.String("frame.name", o.frame),
			attribute.String("fit.mode", r.Mode.String()),
			attribute.Float64("fit.font_size_px", r.FontSizePx),
			attribute.Int("fit.iterations", r.Iterations),
			attribute.Bool("fit.skipped", r.Skipped),
		),
	)
	for _, w := range warnings {
		span.AddEvent("fit.warning", trace.WithAttributes(
			attribute.String("warning.kind", w.Kind.String()),
			attribute.Int("warning.siblings", w.Siblings),
			attribute.String("warning.message", w.Message),
		))
	}
	span.End(trace.WithTimestamp(end))
}

// Observers builds a layout.ObserverFactory logging to log and, when the
// tracer is enabled, tracing under ctx.
func Observers(ctx context.Context, log *zap.Logger, t *Tracer) layout.ObserverFactory {
	return func(frame string) fit.Observer {
		obs := []fit.Observer{NewLogObserver(log, frame)}
		if t.Enabled() {
			obs = append(obs, t.Observer(ctx, frame))
		}
		return fit.Observers(obs...)
	}
}
