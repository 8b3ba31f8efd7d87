package layout

import (
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for length and line-height.
// The layout works in CSS pixels; renderers convert at their boundary.

// Unit represents the original unit of a length value as specified in DSL.
type Unit int

const (
	UnitNone    Unit = iota // unit-less numbers like factors
	UnitPX                  // CSS pixels, the default for bare numbers
	UnitMM                  // millimeters
	UnitCM                  // centimeters
	UnitIN                  // inches
	UnitPT                  // points
	UnitPercent             // relative to a reference length
)

// Conversion constants. 1in = 96px = 72pt = 25.4mm.
const (
	PxPerIn = 96.0
	PxToPt  = 72.0 / PxPerIn
	PtToPx  = 1 / PxToPt
	PxToMm  = 25.4 / PxPerIn
	MmToPx  = 1 / PxToMm
	PtToMm  = 25.4 / 72.0
	MmToPt  = 1.0 / PtToMm
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitPX:
		return "px"
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	case UnitPercent:
		return "%"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// PX converts the length to pixels. Percentages resolve against reference,
// unit-less values are taken as pixels.
func (l Length) PX(reference float64) float64 {
	switch l.Unit {
	case UnitMM:
		return l.Value * MmToPx
	case UnitCM:
		return l.Value * 10 * MmToPx
	case UnitIN:
		return l.Value * PxPerIn
	case UnitPT:
		return l.Value * PtToPx
	case UnitPercent:
		return reference * l.Value / 100
	default:
		return l.Value
	}
}

// ToMM converts an absolute length to millimeters.
func (l Length) ToMM() float64 { return l.PX(0) * PxToMm }

// ToPT converts an absolute length to points.
func (l Length) ToPT() float64 { return l.PX(0) * PxToPt }

// Raw returns the JSON debug form of l.
func (l Length) Raw() *RawLengthJSON {
	return &RawLengthJSON{Value: l.Value, Unit: UnitToString(l.Unit)}
}

var suffixes = []struct {
	s string
	u Unit
}{{"px", UnitPX}, {"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"%", UnitPercent}}

// ParseLength parses a DSL length string preserving its unit. Bare numbers are
// pixels.
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	unit := UnitPX
	for _, suf := range suffixes {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			v = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, err
	}
	return Length{Value: f, Unit: unit}, nil
}

// ParseMargin parses a CSS-style shorthand of one to four lengths.
func ParseMargin(value string, reference float64) (Margin, error) {
	fields := strings.Fields(value)
	vals := make([]float64, 0, 4)
	for _, f := range fields {
		l, err := ParseLength(f)
		if err != nil {
			return Margin{}, err
		}
		vals = append(vals, l.PX(reference))
	}
	switch len(vals) {
	case 1:
		return Margin{vals[0], vals[0], vals[0], vals[0]}, nil
	case 2:
		return Margin{vals[0], vals[1], vals[0], vals[1]}, nil
	case 3:
		return Margin{vals[0], vals[1], vals[2], vals[1]}, nil
	case 4:
		return Margin{vals[0], vals[1], vals[2], vals[3]}, nil
	}
	return Margin{}, strconv.ErrSyntax
}

// LineHeightKind distinguishes factor-based vs absolute line-height specification.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// DefaultLineHeightFactor is used when a frame does not set line-height.
const DefaultLineHeightFactor = 1.2

// LineHeightSpec preserves original author intent: either a factor (e.g., 1.2x) or an absolute length (e.g., 18pt).
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// ParseLineHeight accepts "1.2x", a bare factor "1.2" or an absolute length.
func ParseLineHeight(value string) (LineHeightSpec, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if f, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64); err == nil {
		return LineHeightSpec{Kind: LineHeightFactor, Factor: f}, nil
	}
	l, err := ParseLength(v)
	if err != nil {
		return LineHeightSpec{}, err
	}
	return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}, nil
}

// Resolve computes the absolute line height in px for a font size in px.
// A factor line height follows the font size, an absolute one does not.
func (s LineHeightSpec) Resolve(fontSizePx float64) float64 {
	switch s.Kind {
	case LineHeightFactor:
		if s.Factor <= 0 {
			return fontSizePx * DefaultLineHeightFactor
		}
		return fontSizePx * s.Factor
	case LineHeightAbsolute:
		return s.Len.PX(fontSizePx)
	default:
		return fontSizePx * DefaultLineHeightFactor
	}
}

// Raw returns the JSON debug form of s.
func (s LineHeightSpec) Raw() *RawLineHeightJSON {
	if s.Kind == LineHeightAbsolute {
		return &RawLineHeightJSON{Kind: "absolute", Value: s.Len.Value, Unit: UnitToString(s.Len.Unit)}
	}
	return &RawLineHeightJSON{Kind: "factor", Factor: s.Factor}
}
