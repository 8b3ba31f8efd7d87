// Package fit searches the font size at which a text element fills its
// container without overflowing it.
//
// The layout engine is an opaque oracle: the package only writes one scalar
// font size and reads back natural and container dimensions. Three strategies
// are available, see Mode.
package fit

import (
	"fmt"
	"time"
)

// Result summarises one run. It is diagnostic only.
type Result struct {
	Mode       Mode          `json:"mode"`
	FontSizePx float64       `json:"fontSizePx"`
	Iterations int           `json:"iterations"`
	Elapsed    time.Duration `json:"elapsed"`
	// Skipped is set when the text or the container had a zero dimension and
	// the font size was left untouched.
	Skipped bool `json:"skipped,omitempty"`
}

// Fit adjusts the font size of text so that it fills container.
//
// Invalid bounds fail with a *ConfigurationError before anything is measured
// or mutated. Empty content or a collapsed container is not an error: the
// returned Result has Skipped set and the font size is unchanged.
func Fit(text TextElement, container Container, opts ...Option) (Result, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return Result{}, err
	}
	return run(text, container, cfg)
}

func run(text TextElement, container Container, cfg Config) (Result, error) {
	if text == nil || container == nil {
		return Result{}, fmt.Errorf("fit: text element and container are required")
	}
	start := time.Now()

	if n := container.ChildCount(); n > 1 {
		cfg.Observer.Warn(Warning{
			Kind:     DegenerateInput,
			Siblings: n - 1,
			Message:  fmt.Sprintf("container has %d siblings of the text element, this may interfere with measurement", n-1),
		})
	}

	containerStyle, textStyle := baseline(cfg.Mode)
	container.ApplyPresentation(containerStyle)
	text.ApplyPresentation(textStyle)

	s := &search{cfg: cfg, oracle: oracle{text: text, container: container}}
	if m := s.measure(); m.Empty() || m.Collapsed() {
		res := Result{Mode: cfg.Mode, FontSizePx: text.FontSize(), Skipped: true, Elapsed: time.Since(start)}
		cfg.Observer.Finished(res)
		return res, nil
	}

	s.fontSize = text.FontSize()
	if !(s.fontSize >= cfg.MinFontSizePx && s.fontSize <= cfg.MaxFontSizePx) {
		s.setFontSize(s.fontSize)
	}
	s.run()

	res := Result{
		Mode:       cfg.Mode,
		FontSizePx: s.fontSize,
		Iterations: s.iterations,
		Elapsed:    time.Since(start),
	}
	cfg.Observer.Finished(res)
	return res, nil
}
