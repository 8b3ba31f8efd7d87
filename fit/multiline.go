package fit

const (
	multiLineMaxIterations = 100
	// decayFactor turns the step search into a bisection.
	decayFactor = 0.5
)

// multiLine walks the font size with a step that starts at half the range and
// halves every iteration. Growth is checked before shrinking.
func (s *search) multiLine() {
	updatePx := s.cfg.MaxFontSizePx - s.cfg.MinFontSizePx
	for i := 0; updatePx > s.cfg.FontSizePrecisionPx && i < multiLineMaxIterations; i++ {
		m := s.measure()
		if m.exact() {
			break
		}

		updatePx *= decayFactor
		s.step(m, updatePx)
	}

	s.antiOverflow(Measurement.Fits)
}

// step grows when both dimensions fit (<=, since one dimension can sit on the
// boundary while the other still has room) and shrinks when either strictly
// overflows. Otherwise the size is held.
func (s *search) step(m Measurement, updatePx float64) {
	switch {
	case !s.atMax() && m.Fits():
		s.setFontSize(s.fontSize + updatePx)
	case !s.atMin() && m.Overflows():
		s.setFontSize(s.fontSize - updatePx)
	}
}
