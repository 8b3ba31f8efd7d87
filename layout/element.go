package layout

import (
	"math"
	"sync"

	"github.com/ByLCY/autofit/fit"
)

// Box 是文本框的容器：固定外框尺寸，内容区需扣除内边距。
// 它实现 fit.Container 与 fit.ResizeNotifier。
type Box struct {
	mu           sync.Mutex
	width        float64
	height       float64
	padding      Margin
	children     int
	presentation fit.Presentation

	listeners map[int]func()
	nextID    int
}

var (
	_ fit.Container      = (*Box)(nil)
	_ fit.ResizeNotifier = (*Box)(nil)
	_ fit.TextElement    = (*Text)(nil)
)

// NewBox 创建一个外框为 width×height 的容器。
func NewBox(width, height float64, padding Margin) *Box {
	return &Box{width: width, height: height, padding: padding, listeners: map[int]func(){}}
}

// ContentSize 返回扣除内边距后的内容区尺寸，最小为 0。
func (b *Box) ContentSize() (float64, float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w := math.Max(b.width-b.padding.Left-b.padding.Right, 0)
	h := math.Max(b.height-b.padding.Top-b.padding.Bottom, 0)
	return w, h
}

// Size 返回外框尺寸。
func (b *Box) Size() (float64, float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

// Padding 返回内边距。
func (b *Box) Padding() Margin {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.padding
}

func (b *Box) ChildCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.children
}

func (b *Box) ApplyPresentation(p fit.Presentation) {
	b.mu.Lock()
	b.presentation = p
	b.mu.Unlock()
}

// Presentation 返回最近一次应用的展示属性。
func (b *Box) Presentation() fit.Presentation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.presentation
}

// Resize 修改外框尺寸与内边距；只有内容区尺寸真正变化时才通知订阅者。
func (b *Box) Resize(width, height float64, padding Margin) bool {
	ow, oh := b.ContentSize()
	b.mu.Lock()
	b.width, b.height, b.padding = width, height, padding
	b.mu.Unlock()
	nw, nh := b.ContentSize()
	if ow == nw && oh == nh {
		return false
	}
	b.mu.Lock()
	fns := make([]func(), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return true
}

// Subscribe 注册尺寸变化回调，返回取消函数。
func (b *Box) Subscribe(fn func()) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

func (b *Box) adopt() {
	b.mu.Lock()
	b.children++
	b.mu.Unlock()
}

// Text 是放在 Box 中的文本元素，通过 Typesetter 计算自然尺寸。
// 它实现 fit.TextElement：SetFontSize 之后的 NaturalSize 总是反映新字号。
type Text struct {
	parent     *Box
	ts         Typesetter
	font       FontResource
	lineHeight LineHeightSpec

	mu           sync.Mutex
	content      string
	fontSize     float64
	wrap         string
	presentation fit.Presentation

	dirty  bool
	limit  float64
	lines  []TextLine
	width  float64
	height float64
	err    error
}

// NewText 创建文本元素并挂到 parent 下。
func NewText(parent *Box, ts Typesetter, font FontResource, lineHeight LineHeightSpec, content string, fontSize float64) *Text {
	parent.adopt()
	return &Text{
		parent:     parent,
		ts:         ts,
		font:       font,
		lineHeight: lineHeight,
		content:    content,
		fontSize:   fontSize,
		wrap:       WrapNone,
		dirty:      true,
	}
}

func (t *Text) FontSize() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fontSize
}

func (t *Text) SetFontSize(px float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if px != t.fontSize {
		t.fontSize = px
		t.dirty = true
	}
}

// ApplyPresentation 将 white-space 映射为 Typesetter 的折行策略。
func (t *Text) ApplyPresentation(p fit.Presentation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.presentation = p
	wrap := WrapAnywhere
	if p.WhiteSpace == "nowrap" {
		wrap = WrapNone
	}
	if wrap != t.wrap {
		t.wrap = wrap
		t.dirty = true
	}
}

// NaturalSize 返回当前字号下的自然尺寸：宽为最宽行，高为各行 GapBefore+Height 之和。
// 排版失败时返回 0,0，错误可通过 Err 取得。
func (t *Text) NaturalSize() (float64, float64) {
	limit := 0.0
	if t.Wrap() != WrapNone {
		limit, _ = t.parent.ContentSize()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dirty || limit != t.limit {
		t.relayout(limit)
	}
	return t.width, t.height
}

func (t *Text) relayout(limit float64) {
	t.dirty = false
	t.limit = limit
	t.lines, t.width, t.height, t.err = nil, 0, 0, nil
	if t.ts == nil || t.content == "" {
		return
	}
	lh := t.lineHeight.Resolve(t.fontSize)
	lines, err := t.ts.LayoutLines(t.content, limit, t.font, t.fontSize, lh, t.wrap)
	if err != nil {
		t.err = err
		return
	}
	t.lines = lines
	for i, ln := range lines {
		t.width = math.Max(t.width, ln.Width)
		if i > 0 {
			t.height += ln.GapBefore
		}
		t.height += ln.Height
	}
}

// SetContent 替换文本内容。
func (t *Text) SetContent(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if content != t.content {
		t.content = content
		t.dirty = true
	}
}

func (t *Text) Content() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.content
}

// Wrap 返回当前折行策略。
func (t *Text) Wrap() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wrap
}

// Lines 返回最近一次排版的行（会在必要时重新排版）。
func (t *Text) Lines() []TextLine {
	t.NaturalSize()
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TextLine(nil), t.lines...)
}

// LineHeight 返回当前字号下的行高（px）。
func (t *Text) LineHeight() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lineHeight.Resolve(t.fontSize)
}

// Err 返回最近一次排版的错误。
func (t *Text) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
