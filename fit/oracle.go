package fit

// Presentation is the set of layout properties the orchestrator applies to the
// container and the text element before measuring. Empty fields mean "leave
// as is".
type Presentation struct {
	Display      string
	AlignItems   string
	WhiteSpace   string
	WordBreak    string
	OverflowWrap string
	Hyphens      string
	Overflow     string
}

// TextElement is the element whose single font size is searched.
//
// NaturalSize reports the unconstrained rendered size of the content at the
// current font size and must reflect the last SetFontSize synchronously.
type TextElement interface {
	FontSize() float64
	SetFontSize(px float64)
	NaturalSize() (width, height float64)
	ApplyPresentation(p Presentation)
}

// Container is the box the text must fill. ContentSize excludes padding.
type Container interface {
	ContentSize() (width, height float64)
	ChildCount() int
	ApplyPresentation(p Presentation)
}

// Measurement is one reading of the layout. It is invalidated by any font size
// write and must never be reused across one.
type Measurement struct {
	NaturalWidth    float64 `json:"naturalWidth"`
	NaturalHeight   float64 `json:"naturalHeight"`
	ContainerWidth  float64 `json:"containerWidth"`
	ContainerHeight float64 `json:"containerHeight"`
}

// Empty reports whether the text has nothing to fit.
func (m Measurement) Empty() bool { return m.NaturalWidth == 0 || m.NaturalHeight == 0 }

// Collapsed reports a hidden or collapsed container with no room to fit into.
func (m Measurement) Collapsed() bool { return m.ContainerWidth == 0 || m.ContainerHeight == 0 }

// FitsWidth reports whether the text does not overflow horizontally.
func (m Measurement) FitsWidth() bool { return m.NaturalWidth <= m.ContainerWidth }

// Fits reports whether the text overflows in neither dimension.
func (m Measurement) Fits() bool {
	return m.NaturalWidth <= m.ContainerWidth && m.NaturalHeight <= m.ContainerHeight
}

// Overflows reports whether either dimension strictly exceeds the container.
// Equality is not overflow: a dimension sitting on the boundary must not force
// a shrink.
func (m Measurement) Overflows() bool {
	return m.NaturalWidth > m.ContainerWidth || m.NaturalHeight > m.ContainerHeight
}

// exact reports the rare case where both dimensions match the container.
func (m Measurement) exact() bool {
	return m.NaturalWidth == m.ContainerWidth && m.NaturalHeight == m.ContainerHeight
}

type oracle struct {
	text      TextElement
	container Container
}

func (o oracle) measure() Measurement {
	nw, nh := o.text.NaturalSize()
	cw, ch := o.container.ContentSize()
	return Measurement{NaturalWidth: nw, NaturalHeight: nh, ContainerWidth: cw, ContainerHeight: ch}
}

// baseline returns the presentation contract of a mode for the container and
// the text element.
func baseline(m Mode) (container, text Presentation) {
	container = Presentation{Display: "flex", AlignItems: "start"}
	text = Presentation{Display: "block"}
	if m.wraps() {
		text.WhiteSpace = "pre-wrap"
		text.WordBreak = "normal"
		text.Hyphens = "none"
		text.OverflowWrap = "break-word"
	} else {
		text.WhiteSpace = "nowrap"
		// finite iteration and sub-pixel rounding may overshoot slightly
		text.Overflow = "visible"
	}
	return container, text
}
