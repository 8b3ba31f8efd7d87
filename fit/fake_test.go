package fit_test

import (
	"math"
	"strings"

	"github.com/ByLCY/autofit/fit"
)

// fakeBox is a container with a fixed content box.
type fakeBox struct {
	w, h     float64
	children int
	styles   []fit.Presentation
	measured int
	subs     map[int]func()
	nextSub  int
}

func newBox(w, h float64) *fakeBox { return &fakeBox{w: w, h: h, children: 1} }

func (b *fakeBox) ContentSize() (float64, float64) {
	b.measured++
	return b.w, b.h
}
func (b *fakeBox) ChildCount() int                      { return b.children }
func (b *fakeBox) ApplyPresentation(p fit.Presentation) { b.styles = append(b.styles, p) }

func (b *fakeBox) Subscribe(fn func()) func() {
	if b.subs == nil {
		b.subs = map[int]func(){}
	}
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	return func() { delete(b.subs, id) }
}

func (b *fakeBox) resize(w, h float64) {
	b.w, b.h = w, h
	for _, fn := range b.subs {
		fn()
	}
}

// fakeText lays out words of equal glyph advance. Each rune is advance*fontSize
// wide, lines are lineHeight*fontSize high.
type fakeText struct {
	words      []string
	advance    float64
	lineHeight float64
	quantize   bool

	box      *fakeBox
	fontSize float64
	wrap     bool
	sets     int
	styles   []fit.Presentation
}

func newText(content string, box *fakeBox) *fakeText {
	return &fakeText{
		words:      strings.Fields(content),
		advance:    0.5,
		lineHeight: 1.25,
		box:        box,
		fontSize:   16,
	}
}

func (t *fakeText) FontSize() float64 { return t.fontSize }

func (t *fakeText) SetFontSize(px float64) {
	t.fontSize = px
	t.sets++
}

func (t *fakeText) ApplyPresentation(p fit.Presentation) {
	t.styles = append(t.styles, p)
	if p.WhiteSpace != "" {
		t.wrap = p.WhiteSpace != "nowrap"
	}
}

func (t *fakeText) NaturalSize() (float64, float64) {
	if len(t.words) == 0 {
		return 0, 0
	}
	w, h := t.layout()
	if t.quantize {
		return math.Ceil(w), math.Ceil(h)
	}
	return w, h
}

func (t *fakeText) layout() (float64, float64) {
	glyph := t.advance * t.fontSize
	line := t.lineHeight * t.fontSize
	if !t.wrap {
		runes := len(t.words) - 1
		for _, w := range t.words {
			runes += len([]rune(w))
		}
		return float64(runes) * glyph, line
	}

	limit := t.box.w
	var widest, current float64
	lines := 1
	for _, word := range t.words {
		ww := float64(len([]rune(word))) * glyph
		if ww > limit {
			// overflow-wrap: break-word splits the word across lines
			if current > 0 {
				lines++
			}
			chunks := math.Ceil(ww / limit)
			lines += int(chunks) - 1
			widest = math.Max(widest, math.Min(ww, limit))
			current = ww - (chunks-1)*limit
			continue
		}
		next := ww
		if current > 0 {
			next = current + glyph + ww
		}
		if current > 0 && next > limit {
			lines++
			current = ww
		} else {
			current = next
		}
		widest = math.Max(widest, current)
	}
	return widest, float64(lines) * line
}

// funcText reports whatever size reports for the current font size.
type funcText struct {
	fontSize float64
	size     func(fontSize float64) (float64, float64)
	sets     int
}

func (t *funcText) FontSize() float64 { return t.fontSize }
func (t *funcText) SetFontSize(px float64) {
	t.fontSize = px
	t.sets++
}
func (t *funcText) NaturalSize() (float64, float64)    { return t.size(t.fontSize) }
func (t *funcText) ApplyPresentation(fit.Presentation) {}

// recorder collects observer callbacks.
type recorder struct {
	warnings []fit.Warning
	results  []fit.Result
}

func (r *recorder) Warn(w fit.Warning)    { r.warnings = append(r.warnings, w) }
func (r *recorder) Finished(x fit.Result) { r.results = append(r.results, x) }
