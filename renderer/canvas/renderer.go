package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"math"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/autofit/layout"
	"github.com/ByLCY/autofit/renderer"
)

const (
	outlineWidthPx     = 1.0
	defaultJPEGQuality = 90
)

var outlineColor = layout.Color{R: 230, G: 60, B: 60}

// Renderer draws layout results via github.com/tdewolff/canvas. It also acts
// as the layout.Typesetter so measurement and drawing share the same faces.
//
// Layout values are CSS pixels; canvas works in millimeters with font sizes in
// points, so every boundary converts.
type Renderer struct {
	baseDir     string
	scale       float64
	jpegQuality int

	// injected resources
	fontBlobs map[string][]byte

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string][]byte // extra fonts accessible via builtin:<name>
	// Scale is the raster resolution in device pixels per layout pixel.
	Scale       float64
	JPEGQuality int
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		scale:        opts.Scale,
		jpegQuality:  opts.JPEGQuality,
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	if r.scale <= 0 {
		r.scale = 1
	}
	if r.jpegQuality <= 0 || r.jpegQuality > 100 {
		r.jpegQuality = defaultJPEGQuality
	}
	for name, blob := range opts.Fonts {
		if name != "" && len(blob) > 0 {
			r.fontBlobs[strings.ToLower(name)] = blob
		}
	}
	return r
}

// Render renders the result into the requested format.
func (r *Renderer) Render(result *layout.Result, format renderer.Format) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if result.Canvas.Width <= 0 || result.Canvas.Height <= 0 {
		return nil, fmt.Errorf("画布尺寸无效: %gx%g", result.Canvas.Width, result.Canvas.Height)
	}

	c := canvas.New(toMm(result.Canvas.Width), toMm(result.Canvas.Height))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	if err := r.drawCanvas(ctx, result); err != nil {
		return nil, err
	}

	switch format {
	case renderer.PDF, "":
		return r.writePDF(c, result.Meta)
	case renderer.PNG, renderer.JPEG:
		return r.writeRaster(c, format)
	}
	return nil, fmt.Errorf("不支持的输出格式 %q", format)
}

func (r *Renderer) writePDF(c *canvas.Canvas, meta layout.DocumentMeta) ([]byte, error) {
	var buf bytes.Buffer
	writer := pdf.New(&buf, c.W, c.H, nil)
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) writeRaster(c *canvas.Canvas, format renderer.Format) ([]byte, error) {
	img := rasterizer.Draw(c, canvas.DPMM(layout.MmToPx*r.scale), canvas.DefaultColorSpace)
	var buf bytes.Buffer
	var err error
	if format == renderer.PNG {
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	} else {
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(r.jpegQuality))
	}
	if err != nil {
		return nil, fmt.Errorf("编码 %s 失败: %w", format, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawCanvas(ctx *canvas.Context, result *layout.Result) error {
	if bg := result.Canvas.Background; bg != nil {
		ctx.SetFillColor(colorFromLayout(*bg))
		ctx.SetStrokeColor(canvas.Transparent)
		ctx.DrawPath(0, 0, canvas.Rectangle(toMm(result.Canvas.Width), toMm(result.Canvas.Height)))
	}
	for _, f := range result.Frames {
		if f.Outline {
			r.drawOutline(ctx, f)
		}
		if f.Skipped || len(f.Lines) == 0 {
			continue
		}
		font := resolveFontResource(f.Font, result.Fonts)
		if err := r.drawFrame(ctx, f, font); err != nil {
			return fmt.Errorf("绘制文本框 %s 失败: %w", f.Name, err)
		}
	}
	return nil
}

func (r *Renderer) drawOutline(ctx *canvas.Context, f layout.Frame) {
	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(colorFromLayout(outlineColor))
	ctx.SetStrokeWidth(toMm(outlineWidthPx))
	ctx.DrawPath(toMm(f.X), toMm(f.Y), canvas.Rectangle(toMm(f.Width), toMm(f.Height)))
}

// drawFrame 在内容区内逐行绘制，行的宽高均来自排版阶段（px）。
func (r *Renderer) drawFrame(ctx *canvas.Context, f layout.Frame, font layout.FontResource) error {
	face, err := r.fontFace(font, f.FontSize*layout.PxToPt, f.Color)
	if err != nil {
		return err
	}
	ascent := face.Metrics().Ascent * layout.MmToPx

	left := f.X + f.Padding.Left
	contentWidth := math.Max(f.Width-f.Padding.Left-f.Padding.Right, 0)
	cursorY := f.Y + f.Padding.Top
	for i, line := range f.Lines {
		if i > 0 {
			cursorY += line.GapBefore
		}
		x := left + layout.AlignOffset(contentWidth, line.Width, f.Align)
		ctx.DrawText(toMm(x), toMm(cursorY+ascent), canvas.NewTextLine(face, line.Content, canvas.Left))
		cursorY += line.Height
	}
	return nil
}

// LayoutLines 实现 layout.Typesetter 接口，使用贪心换行算法。
// 约定：width/fontSize/lineHeight 与返回的行宽高均为 px。
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	face, err := r.fontFace(font, fontSize*layout.PxToPt, layout.Color{R: 30, G: 30, B: 30})
	if err != nil {
		return nil, err
	}

	w := wrapper{
		limit:   width,
		measure: func(s string) float64 { return face.TextWidth(s) * layout.MmToPx },
	}
	lines := w.wrap(content, wrap)

	textHeight := face.Metrics().LineHeight * layout.MmToPx
	if textHeight <= 0 {
		textHeight = lineHeight
	}
	leading := math.Max(lineHeight-textHeight, 0)
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: ""}}
	}
	for i := range lines {
		lines[i].Height = textHeight
		if i > 0 {
			lines[i].GapBefore = leading
		}
	}
	return lines, nil
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toMm 将 px 转换为毫米(mm)。
func toMm(px float64) float64 { return px * layout.PxToMm }
