package fit

const boxMaxIterations = 100

// box is a binary search over [min, max] starting at the midpoint. Each probe
// moves by a quarter of the range, then an eighth and so on, which bounds the
// iteration count by log2(range/precision).
func (s *search) box() {
	span := s.cfg.MaxFontSizePx - s.cfg.MinFontSizePx
	s.setFontSize(s.cfg.MinFontSizePx + span*0.5)

	updatePx := span * 0.25
	for i := 0; updatePx > s.cfg.FontSizePrecisionPx && i < boxMaxIterations; i++ {
		m := s.measure()
		if m.exact() {
			break
		}

		s.step(m, updatePx)
		updatePx *= decayFactor
	}

	s.antiOverflow(Measurement.Fits)
}
