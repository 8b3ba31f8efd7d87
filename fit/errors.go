package fit

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration matches every *ConfigurationError via errors.Is.
	ErrInvalidConfiguration = errors.New("invalid fit configuration")
	// ErrBusy is returned when a run is requested while another run of the
	// same session is still executing.
	ErrBusy = errors.New("fit run already in progress")
	// ErrDisposed is returned by sessions that have been disposed.
	ErrDisposed = errors.New("fit session disposed")
)

// ConfigurationError reports a numeric bound that cannot be used for a search.
// It is raised before any style mutation or measurement happens.
type ConfigurationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// WarningKind classifies non-fatal conditions reported through an Observer.
type WarningKind int

const (
	// DegenerateInput means the container hosts siblings of the text element
	// which may corrupt measurement.
	DegenerateInput WarningKind = iota + 1
)

func (k WarningKind) String() string {
	switch k {
	case DegenerateInput:
		return "degenerate-input"
	default:
		return fmt.Sprintf("warning(%d)", int(k))
	}
}

// Warning is a non-fatal diagnostic. It never changes the outcome of a run.
type Warning struct {
	Kind     WarningKind
	Siblings int
	Message  string
}
