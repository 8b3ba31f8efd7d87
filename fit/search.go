package fit

// search is the state of one strategy invocation. The font size is written
// only through setFontSize, which keeps min <= fontSize <= max.
type search struct {
	cfg        Config
	oracle     oracle
	fontSize   float64
	iterations int
}

// setFontSize clamps candidate, applies it and returns the applied value.
// Strategies must continue from the return value: clamping can silently cap a
// requested jump.
func (s *search) setFontSize(candidate float64) float64 {
	px := s.cfg.clamp(candidate, s.fontSize)
	s.oracle.text.SetFontSize(px)
	s.fontSize = px
	s.iterations++
	return px
}

func (s *search) measure() Measurement { return s.oracle.measure() }

func (s *search) atMin() bool { return s.fontSize <= s.cfg.MinFontSizePx }
func (s *search) atMax() bool { return s.fontSize >= s.cfg.MaxFontSizePx }

func (s *search) run() {
	switch s.cfg.Mode {
	case MultiLine:
		s.multiLine()
	case Box:
		s.box()
	default:
		s.singleLine()
	}
}
