package layout

import "time"

// 该文件定义布局结果与资源描述，供字号搜索、渲染与调试 JSON 共用。
// 除特别说明外，所有长度单位均为 px（1in = 96px）。

// Result 保存一次排版后的画布、文本框与资源信息。
type Result struct {
	Canvas Canvas                  `json:"canvas"`
	Frames []Frame                 `json:"frames"`
	Fonts  map[string]FontResource `json:"fonts"`
	Meta   DocumentMeta            `json:"meta"`
}

// Canvas 描述输出画布。
type Canvas struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Background *Color  `json:"background,omitempty"`
}

// FontResource 描述字体资源，src 可以是文件路径或 builtin:* / embed:* 形式。
type FontResource struct {
	Name   string `json:"name"`
	Src    string `json:"src"`
	Style  string `json:"style,omitempty"`
	Family string `json:"family"` // 渲染器使用的 Family 名称
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Margin 表示四边内边距。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Frame 是一个已完成字号搜索、可以直接绘制的文本框。
type Frame struct {
	Name       string        `json:"name"`
	X          float64       `json:"x"`
	Y          float64       `json:"y"`
	Width      float64       `json:"width"`
	Height     float64       `json:"height"`
	Padding    Margin        `json:"padding"`
	Mode       string        `json:"mode"`
	Content    string        `json:"content"`
	Font       string        `json:"font"`
	FontSize   float64       `json:"fontSize"`
	LineHeight float64       `json:"lineHeight"`
	Color      Color         `json:"color"`
	Align      string        `json:"align,omitempty"`
	Outline    bool          `json:"outline,omitempty"`
	Lines      []TextLine    `json:"lines"`
	Iterations int           `json:"iterations"`
	Elapsed    time.Duration `json:"elapsed"`
	Skipped    bool          `json:"skipped,omitempty"`
	// Overflows 为 true 表示即使在最小字号下文本仍然溢出。
	Overflows bool `json:"overflows,omitempty"`
	// Unbound 记录未能解析且没有后备值的 ${path} 占位符。
	Unbound []string    `json:"unbound,omitempty"`
	Debug   *FrameDebug `json:"debug,omitempty"`
}

// TextLine 表示排版后的一行文本内容及其宽高。
type TextLine struct {
	Content   string  `json:"content"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapBefore float64 `json:"gapBefore,omitempty"`
}

// FrameDebug holds optional debug info displayed only when enabled by BuildOptions.
type FrameDebug struct {
	RawUnits *RawUnits `json:"rawUnits,omitempty"`
}

// RawUnits describes original author-specified units for key fields.
type RawUnits struct {
	Min        *RawLengthJSON     `json:"min,omitempty"`
	Max        *RawLengthJSON     `json:"max,omitempty"`
	Precision  *RawLengthJSON     `json:"precision,omitempty"`
	LineHeight *RawLineHeightJSON `json:"lineHeight,omitempty"`
}

// RawLengthJSON is a JSON-friendly representation of Length.
type RawLengthJSON struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// RawLineHeightJSON is a JSON-friendly representation of LineHeightSpec.
type RawLineHeightJSON struct {
	Kind   string  `json:"kind"` // "factor" | "absolute"
	Factor float64 `json:"factor,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

// DocumentMeta 保存输出文件的元信息。
type DocumentMeta struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
