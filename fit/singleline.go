package fit

import "math"

// singleLineMaxIterations is a safety cap; proportional rescaling usually
// converges in two to four steps.
const singleLineMaxIterations = 10

// singleLine rescales the font size by the ratio of container width to
// natural width until the change drops below the precision.
func (s *search) singleLine() {
	prevOverflow := 1.0
	for i := 0; i < singleLineMaxIterations; i++ {
		m := s.measure()
		canGrow := !s.atMax() && m.NaturalWidth < m.ContainerWidth
		canShrink := !s.atMin() && m.NaturalWidth > m.ContainerWidth

		overflow := m.NaturalWidth / m.ContainerWidth
		// the renderer did not react to the previous update
		if overflow == prevOverflow {
			break
		}
		if !canGrow && !canShrink {
			break
		}

		prev := s.fontSize
		next := s.setFontSize(s.fontSize / overflow)
		if math.Abs(next-prev) <= s.cfg.FontSizePrecisionPx {
			break
		}
		prevOverflow = overflow
	}

	s.antiOverflow(Measurement.FitsWidth)
}
