package fit

import (
	"fmt"
	"strings"
)

// Mode selects the search strategy and the baseline presentation applied
// before measuring.
type Mode int

const (
	// SingleLine keeps the text on one line and fits its width.
	SingleLine Mode = iota
	// MultiLine lets the text wrap and fits width and height with a
	// decaying-step search.
	MultiLine
	// Box lets the text wrap and fits width and height with a binary search
	// over [min, max].
	Box
)

func (m Mode) String() string {
	switch m {
	case SingleLine:
		return "single-line"
	case MultiLine:
		return "multi-line"
	case Box:
		return "box"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// wraps reports whether the mode permits line wrapping.
func (m Mode) wraps() bool { return m == MultiLine || m == Box }

// ParseMode accepts the names printed by Mode.String plus a few aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single-line", "singleline", "single", "oneline", "nowrap":
		return SingleLine, nil
	case "multi-line", "multiline", "multi", "wrap":
		return MultiLine, nil
	case "box", "boxfit", "box-fit":
		return Box, nil
	default:
		return SingleLine, fmt.Errorf("unknown fit mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler so modes read well in debug JSON.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
