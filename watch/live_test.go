package watch

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ByLCY/autofit/dsl"
	"github.com/ByLCY/autofit/fit"
	"github.com/ByLCY/autofit/layout"
)

// monoTypesetter lays every paragraph on one line, each glyph 0.5em wide.
type monoTypesetter struct{}

func (monoTypesetter) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	var lines []layout.TextLine
	for i, para := range strings.Split(content, "\n") {
		l := layout.TextLine{Content: para, Width: float64(len([]rune(para))) * fontSize * 0.5, Height: fontSize}
		if i > 0 {
			l.GapBefore = lineHeight - fontSize
		}
		lines = append(lines, l)
	}
	return lines, nil
}

const (
	docWide   = `autofit T v1 { frame A { width: 200px height: 100px "abcdefghij" } }`
	docNarrow = `autofit T v1 { frame A { width: 100px height: 100px "abcdefghij" } }`
	docShort  = `autofit T v1 { frame A { width: 200px height: 100px "abcde" } }`
	docRecolr = `autofit T v1 { frame A { width: 200px height: 100px color: #ff0000 "abcdefghij" } }`
	docTwo    = `autofit T v1 { frame A { width: 200px height: 100px "abcdefghij" } frame B { width: 50px height: 50px "ab" } }`
)

func mustParse(t *testing.T, src string) *dsl.Document {
	t.Helper()
	doc, err := dsl.ParseString(src)
	require.NoError(t, err)
	return doc
}

type harness struct {
	live      *Live
	scheduler *fit.ManualScheduler
	rendered  []*layout.Result
}

func newHarness(t *testing.T, src string, renderErr error) *harness {
	t.Helper()
	h := &harness{scheduler: &fit.ManualScheduler{}}
	live, err := NewLive(mustParse(t, src), nil, Options{
		Build:     layout.BuildOptions{Typesetter: monoTypesetter{}},
		Scheduler: h.scheduler,
		Render: func(res *layout.Result) error {
			h.rendered = append(h.rendered, res)
			return renderErr
		},
		Log: zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(live.Close)
	h.live = live
	return h
}

func (h *harness) last() layout.Frame {
	return h.rendered[len(h.rendered)-1].Frames[0]
}

func TestLiveFitsAndRendersOnce(t *testing.T) {
	h := newHarness(t, docWide, nil)
	assert.Empty(t, h.rendered, "nothing runs before the first tick")

	h.scheduler.Drain(10)
	require.Len(t, h.rendered, 1)
	assert.InDelta(t, 40, h.last().FontSize, 0.15)

	n, err := h.live.Renders()
	assert.Equal(t, 1, n)
	assert.NoError(t, err)
}

func TestLiveResizeRefits(t *testing.T) {
	h := newHarness(t, docWide, nil)
	h.scheduler.Drain(10)

	require.NoError(t, h.live.Apply(mustParse(t, docNarrow), nil))
	h.scheduler.Drain(10)
	assert.InDelta(t, 20, h.last().FontSize, 0.15)
	assert.Equal(t, 100.0, h.last().Width)
}

func TestLiveContentChangeRefits(t *testing.T) {
	h := newHarness(t, docWide, nil)
	h.scheduler.Drain(10)

	require.NoError(t, h.live.Apply(mustParse(t, docShort), nil))
	h.scheduler.Drain(10)
	assert.InDelta(t, 80, h.last().FontSize, 0.15)
}

func TestLiveStyleChangeRendersWithoutRefit(t *testing.T) {
	h := newHarness(t, docWide, nil)
	h.scheduler.Drain(10)
	before := h.last().Iterations

	require.NoError(t, h.live.Apply(mustParse(t, docRecolr), nil))
	h.scheduler.Drain(10)
	require.Len(t, h.rendered, 2)
	assert.Equal(t, layout.Color{R: 255}, h.last().Color)
	assert.Equal(t, before, h.last().Iterations)
}

func TestLiveStructureChangeRebuilds(t *testing.T) {
	h := newHarness(t, docWide, nil)
	h.scheduler.Drain(10)
	assert.Equal(t, 1, h.live.Sessions())

	require.NoError(t, h.live.Apply(mustParse(t, docTwo), nil))
	assert.Equal(t, 2, h.live.Sessions())
	h.scheduler.Drain(10)
	require.Len(t, h.rendered[len(h.rendered)-1].Frames, 2)
	assert.InDelta(t, 50, h.rendered[len(h.rendered)-1].Frames[1].FontSize, 0.15)
}

func TestLiveRejectsBrokenRevision(t *testing.T) {
	h := newHarness(t, docWide, nil)
	h.scheduler.Drain(10)

	err := h.live.Apply(mustParse(t, `autofit T v1 { canvas { width: 0 } frame A { "x" } }`), nil)
	assert.Error(t, err)
	assert.InDelta(t, 40, h.live.Result().Frames[0].FontSize, 0.15)
}

func TestLiveRecordsRenderError(t *testing.T) {
	boom := errors.New("disk full")
	h := newHarness(t, docWide, boom)
	h.scheduler.Drain(10)

	_, err := h.live.Renders()
	assert.ErrorIs(t, err, boom)
}

func TestLiveCloseStopsWork(t *testing.T) {
	h := newHarness(t, docWide, nil)
	h.live.Close()
	h.scheduler.Drain(10)
	assert.Empty(t, h.rendered)
	assert.Equal(t, 0, h.live.Sessions())
}

func TestNewLiveRequiresScheduler(t *testing.T) {
	_, err := NewLive(mustParse(t, docWide), nil, Options{
		Build: layout.BuildOptions{Typesetter: monoTypesetter{}},
		Log:   zap.NewNop(),
	})
	assert.Error(t, err)
}
