package fit

import "math"

// antiOverflow shrinks by one precision step at a time until done reports
// true or the minimum is reached. Underflow only leaves space unused while
// overflow looks broken, so the search always settles on the smaller side.
//
// The step budget is ceil(1/precision): a 1px correction never needs more.
func (s *search) antiOverflow(done func(Measurement) bool) {
	step := s.cfg.FontSizePrecisionPx
	limit := int(math.Ceil(1 / step))
	for i := 0; i < limit && !s.atMin(); i++ {
		if done(s.measure()) {
			return
		}
		s.setFontSize(s.fontSize - step)
	}
}
