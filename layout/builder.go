package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/ByLCY/autofit/binding"
	"github.com/ByLCY/autofit/dsl"
	"github.com/ByLCY/autofit/fit"
	"github.com/ByLCY/autofit/fonts"
)

const (
	defaultCanvasWidth  = 800.0
	defaultCanvasHeight = 600.0
	defaultFontSize     = 16.0
	defaultFontName     = "Body"
)

var defaultTextColor = Color{R: 30, G: 30, B: 30}

// ErrStructureChanged 表示新文档无法原地更新到现有 Stage（文本框增删、字体或搜索配置变化）。
var ErrStructureChanged = errors.New("layout: 文档结构已变化，需要重建")

// Build 根据 DSL AST 生成画布与文本框，并对每个文本框执行一次字号搜索。
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Result, error) {
	stage, err := NewStage(doc, data, opts)
	if err != nil {
		return nil, err
	}
	if err := stage.FitAll(); err != nil {
		return stage.Result(), err
	}
	return stage.Result(), nil
}

// Stage 持有一个文档的全部文本框，可被反复适配与原地更新。
type Stage struct {
	opts   BuildOptions
	meta   DocumentMeta
	fonts  map[string]FontResource
	nodes  []*Node
	byName map[string]*Node

	mu     sync.Mutex
	canvas Canvas
}

// Node 是一个文本框在排版期间的可变状态。
type Node struct {
	Name string
	Box  *Box
	Text *Text
	// Config 是该文本框的字号搜索配置，已校验。
	Config fit.Config

	font       FontResource
	lineHeight LineHeightSpec
	raw        *RawUnits

	mu      sync.Mutex
	x, y    float64
	color   Color
	align   string
	outline bool
	unbound []string
	last    fit.Result
}

// NewStage 解析文档并创建全部文本框，但不执行字号搜索。
func NewStage(doc *dsl.Document, data any, opts BuildOptions) (*Stage, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}
	if opts.Defaults.MinFontSizePx == 0 && opts.Defaults.MaxFontSizePx == 0 {
		opts.Defaults = fit.DefaultConfig()
	}

	canvas, err := collectCanvas(doc.Section("canvas"))
	if err != nil {
		return nil, err
	}
	s := &Stage{
		opts:   opts,
		meta:   collectMeta(doc),
		fonts:  collectFonts(doc),
		canvas: canvas,
		byName: map[string]*Node{},
	}

	defaults := doc.Section("defaults").Properties()
	for _, nb := range doc.Frames() {
		if _, dup := s.byName[nb.Name]; dup {
			err = multierr.Append(err, fmt.Errorf("文本框 %s 重复定义", nb.Name))
			continue
		}
		spec, specErr := s.parseFrame(nb, defaults, data)
		if specErr != nil {
			err = multierr.Append(err, specErr)
			continue
		}
		n := s.newNode(spec)
		s.nodes = append(s.nodes, n)
		s.byName[n.Name] = n
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Nodes 按文档顺序返回全部文本框。
func (s *Stage) Nodes() []*Node { return s.nodes }

// Node 按名称查找文本框。
func (s *Stage) Node(name string) (*Node, bool) {
	n, ok := s.byName[name]
	return n, ok
}

// FitAll 依次对全部文本框执行字号搜索，错误会被合并后返回。
func (s *Stage) FitAll() error {
	var err error
	for _, n := range s.nodes {
		if _, fitErr := n.Fit(); fitErr != nil {
			err = multierr.Append(err, fitErr)
		}
	}
	return err
}

// Result 返回当前状态的快照。
func (s *Stage) Result() *Result {
	s.mu.Lock()
	canvas := s.canvas
	s.mu.Unlock()
	res := &Result{
		Canvas: canvas,
		Frames: make([]Frame, 0, len(s.nodes)),
		Fonts:  s.fonts,
		Meta:   s.meta,
	}
	for _, n := range s.nodes {
		res.Frames = append(res.Frames, n.Frame(s.opts.Debug))
	}
	return res
}

// Update 将新文档原地应用到 Stage：改变外框尺寸（触发订阅者）、替换文本与样式。
// 返回内容发生变化、需要重新搜索字号的文本框名称。
// 若文本框集合、字体、行高或搜索配置变化，返回 ErrStructureChanged。
func (s *Stage) Update(doc *dsl.Document, data any) ([]string, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	canvas, err := collectCanvas(doc.Section("canvas"))
	if err != nil {
		return nil, err
	}
	frames := doc.Frames()
	if len(frames) != len(s.nodes) {
		return nil, ErrStructureChanged
	}

	defaults := doc.Section("defaults").Properties()
	specs := make([]frameSpec, 0, len(frames))
	for i, nb := range frames {
		if nb.Name != s.nodes[i].Name {
			return nil, ErrStructureChanged
		}
		spec, err := s.parseFrameOn(canvas, nb, defaults, data)
		if err != nil {
			return nil, err
		}
		n := s.nodes[i]
		if spec.font != n.font || spec.lineHeight != n.lineHeight || !sameSearch(spec.cfg, n.Config) {
			return nil, ErrStructureChanged
		}
		specs = append(specs, spec)
	}

	s.mu.Lock()
	s.canvas = canvas
	s.mu.Unlock()

	var changed []string
	for i, spec := range specs {
		n := s.nodes[i]
		n.mu.Lock()
		n.x, n.y = spec.x, spec.y
		n.color, n.align, n.outline, n.unbound = spec.color, spec.align, spec.outline, spec.unbound
		n.mu.Unlock()

		resized := n.Box.Resize(spec.width, spec.height, spec.padding)
		if spec.content != n.Text.Content() {
			n.Text.SetContent(spec.content)
			if !resized {
				changed = append(changed, n.Name)
			}
		}
	}
	return changed, nil
}

func sameSearch(a, b fit.Config) bool {
	return a.Mode == b.Mode && a.MinFontSizePx == b.MinFontSizePx &&
		a.MaxFontSizePx == b.MaxFontSizePx && a.FontSizePrecisionPx == b.FontSizePrecisionPx
}

// Fit 对该文本框执行一次字号搜索并记录结果。
func (n *Node) Fit() (fit.Result, error) {
	res, err := fit.Fit(n.Text, n.Box, fit.WithConfig(n.Config))
	if err != nil {
		return res, fmt.Errorf("文本框 %s: %w", n.Name, err)
	}
	n.Record(res)
	if tsErr := n.Text.Err(); tsErr != nil {
		return res, fmt.Errorf("文本框 %s 排版失败: %w", n.Name, tsErr)
	}
	return res, nil
}

// Record 保存最近一次搜索结果，供长期会话的回调使用。
func (n *Node) Record(r fit.Result) {
	n.mu.Lock()
	n.last = r
	n.mu.Unlock()
}

// Last 返回最近一次搜索结果。
func (n *Node) Last() fit.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// Frame 返回该文本框的可渲染快照。
func (n *Node) Frame(debug DebugOptions) Frame {
	w, h := n.Box.Size()
	lines := n.Text.Lines()
	nw, nh := n.Text.NaturalSize()
	cw, ch := n.Box.ContentSize()

	n.mu.Lock()
	defer n.mu.Unlock()
	f := Frame{
		Name:       n.Name,
		X:          n.x,
		Y:          n.y,
		Width:      w,
		Height:     h,
		Padding:    n.Box.Padding(),
		Mode:       n.Config.Mode.String(),
		Content:    n.Text.Content(),
		Font:       n.font.Name,
		FontSize:   n.Text.FontSize(),
		LineHeight: n.Text.LineHeight(),
		Color:      n.color,
		Align:      n.align,
		Outline:    n.outline,
		Lines:      lines,
		Iterations: n.last.Iterations,
		Elapsed:    n.last.Elapsed,
		Skipped:    n.last.Skipped,
		Unbound:    n.unbound,
	}
	if !f.Skipped {
		m := fit.Measurement{NaturalWidth: nw, NaturalHeight: nh, ContainerWidth: cw, ContainerHeight: ch}
		if n.Config.Mode == fit.SingleLine {
			f.Overflows = !m.FitsWidth()
		} else {
			f.Overflows = m.Overflows()
		}
	}
	if debug.RawUnits && n.raw != nil {
		f.Debug = &FrameDebug{RawUnits: n.raw}
	}
	return f
}

type frameSpec struct {
	name                string
	x, y, width, height float64
	padding             Margin
	cfg                 fit.Config
	font                FontResource
	lineHeight          LineHeightSpec
	size                float64
	color               Color
	align               string
	outline             bool
	content             string
	unbound             []string
	raw                 *RawUnits
}

func (s *Stage) newNode(spec frameSpec) *Node {
	box := NewBox(spec.width, spec.height, spec.padding)
	text := NewText(box, s.opts.Typesetter, spec.font, spec.lineHeight, spec.content, spec.size)
	return &Node{
		Name:       spec.name,
		Box:        box,
		Text:       text,
		Config:     spec.cfg,
		font:       spec.font,
		lineHeight: spec.lineHeight,
		raw:        spec.raw,
		x:          spec.x,
		y:          spec.y,
		color:      spec.color,
		align:      spec.align,
		outline:    spec.outline,
		unbound:    spec.unbound,
	}
}

func (s *Stage) parseFrame(nb *dsl.NamedBlock, defaults map[string]string, data any) (frameSpec, error) {
	s.mu.Lock()
	canvas := s.canvas
	s.mu.Unlock()
	return s.parseFrameOn(canvas, nb, defaults, data)
}

// parseFrameOn 合并 defaults 与 frame 属性，并解析为 frameSpec。
func (s *Stage) parseFrameOn(canvas Canvas, nb *dsl.NamedBlock, defaults map[string]string, data any) (frameSpec, error) {
	props := map[string]string{}
	for k, v := range defaults {
		props[k] = v
	}
	for k, v := range nb.Block.Properties() {
		props[k] = v
	}

	spec := frameSpec{name: nb.Name, size: defaultFontSize, color: defaultTextColor}
	var errs error
	length := func(key string, reference, fallback float64) (float64, *RawLengthJSON) {
		v, ok := props[key]
		if !ok {
			return fallback, nil
		}
		l, err := ParseLength(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("属性 %s=%q 无法解析: %w", key, v, err))
			return fallback, nil
		}
		return l.PX(reference), l.Raw()
	}

	spec.x, _ = length("x", canvas.Width, 0)
	spec.y, _ = length("y", canvas.Height, 0)
	spec.width, _ = length("width", canvas.Width, canvas.Width-spec.x)
	spec.height, _ = length("height", canvas.Height, canvas.Height-spec.y)
	if v, ok := props["padding"]; ok {
		m, err := ParseMargin(v, spec.width)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("属性 padding=%q 无法解析: %w", v, err))
		}
		spec.padding = m
	}

	base := s.opts.Defaults
	raw := &RawUnits{}
	opts := []fit.Option{fit.WithConfig(base), fit.WithObserver(s.opts.observer(nb.Name))}
	if v, ok := props["mode"]; ok {
		m, err := fit.ParseMode(v)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		opts = append(opts, fit.WithMode(m))
	}
	var px float64
	px, raw.Min = length("min", defaultFontSize, base.MinFontSizePx)
	opts = append(opts, fit.WithMinFontSize(px))
	px, raw.Max = length("max", defaultFontSize, base.MaxFontSizePx)
	opts = append(opts, fit.WithMaxFontSize(px))
	px, raw.Precision = length("precision", defaultFontSize, base.FontSizePrecisionPx)
	opts = append(opts, fit.WithPrecision(px))
	spec.size, _ = length("size", defaultFontSize, defaultFontSize)

	if v, ok := props["line-height"]; ok {
		lh, err := ParseLineHeight(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("属性 line-height=%q 无法解析: %w", v, err))
		}
		spec.lineHeight = lh
	} else {
		spec.lineHeight = LineHeightSpec{Kind: LineHeightFactor, Factor: DefaultLineHeightFactor}
	}
	raw.LineHeight = spec.lineHeight.Raw()
	spec.raw = raw

	if v, ok := props["color"]; ok {
		c, err := parseColor(v)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		spec.color = c
	}
	spec.align = strings.ToLower(props["align"])
	if v, ok := props["outline"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("属性 outline=%q 无法解析: %w", v, err))
		}
		spec.outline = b
	}

	font, err := resolveFontResource(props["font"], s.fonts)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	spec.font = font

	exp := binding.Expand(strings.Join(nb.Block.Texts(), "\n"), data)
	spec.content, spec.unbound = exp.Text, exp.Missing

	cfg, err := fit.NewConfig(opts...)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	spec.cfg = cfg

	if errs != nil {
		return spec, fmt.Errorf("文本框 %s: %w", nb.Name, errs)
	}
	return spec, nil
}

func collectCanvas(block *dsl.Block) (Canvas, error) {
	c := Canvas{Width: defaultCanvasWidth, Height: defaultCanvasHeight}
	props := block.Properties()
	var err error
	for key, dst := range map[string]*float64{"width": &c.Width, "height": &c.Height} {
		v, ok := props[key]
		if !ok {
			continue
		}
		l, perr := ParseLength(v)
		if perr != nil || l.Unit == UnitPercent || l.Value <= 0 {
			err = multierr.Append(err, fmt.Errorf("画布 %s=%q 无效", key, v))
			continue
		}
		*dst = l.PX(0)
	}
	if v, ok := props["background"]; ok {
		bg, perr := parseColor(v)
		if perr != nil {
			err = multierr.Append(err, perr)
		} else {
			c.Background = &bg
		}
	}
	return c, err
}

func collectMeta(doc *dsl.Document) DocumentMeta {
	meta := DocumentMeta{
		Name:    doc.Name,
		Version: doc.Version,
		Creator: "autofit",
	}
	for key, value := range doc.Section("meta").Properties() {
		switch key {
		case "title":
			meta.Title = value
		case "author":
			meta.Author = value
		case "subject":
			meta.Subject = value
		case "creator":
			meta.Creator = value
		case "keywords":
			for _, k := range strings.Split(value, ",") {
				if k = strings.TrimSpace(k); k != "" {
					meta.Keywords = append(meta.Keywords, k)
				}
			}
		}
	}
	return meta
}

func collectFonts(doc *dsl.Document) map[string]FontResource {
	out := map[string]FontResource{}
	for _, nb := range doc.Fonts() {
		props := nb.Block.Properties()
		font := FontResource{
			Name:   nb.Name,
			Src:    props["src"],
			Style:  props["style"],
			Family: nb.Name,
		}
		if font.Src == "" {
			font.Src = "builtin:" + fonts.Default
		}
		out[nb.Name] = font
	}
	if len(out) == 0 {
		out[defaultFontName] = FontResource{
			Name:   defaultFontName,
			Src:    "builtin:" + fonts.Default,
			Family: defaultFontName,
		}
	}
	return out
}

func resolveFontResource(name string, res map[string]FontResource) (FontResource, error) {
	if name != "" {
		if font, ok := res[name]; ok {
			return font, nil
		}
		return FontResource{}, fmt.Errorf("字体 %s 未定义", name)
	}
	if font, ok := res[defaultFontName]; ok {
		return font, nil
	}
	// 没有 Body 时取名称最小的字体，保证结果稳定
	first := ""
	for k := range res {
		if first == "" || k < first {
			first = k
		}
	}
	if first != "" {
		return res[first], nil
	}
	return FontResource{}, fmt.Errorf("没有可用的默认字体")
}

func parseColor(value string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	case 8:
		hex = hex[:6]
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	return Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}

// AlignOffset 返回宽为 width 的行在 container 内按 align 对齐时的水平偏移。
func AlignOffset(container, width float64, align string) float64 {
	if container <= width {
		return 0
	}
	switch strings.ToLower(align) {
	case "center", "middle":
		return (container - width) / 2
	case "right", "end":
		return container - width
	default:
		return 0
	}
}
