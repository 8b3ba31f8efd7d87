package fit

import (
	"math"

	"go.uber.org/multierr"
)

// Defaults applied by NewConfig before any Option.
const (
	DefaultMinFontSizePx       = 8.0
	DefaultMaxFontSizePx       = 160.0
	DefaultFontSizePrecisionPx = 0.1
)

// Config is the immutable input of one fit run.
type Config struct {
	Mode                Mode
	MinFontSizePx       float64
	MaxFontSizePx       float64
	FontSizePrecisionPx float64
	Observer            Observer
}

// Option mutates a Config under construction.
type Option func(*Config)

// WithMode selects the fit strategy.
func WithMode(m Mode) Option { return func(c *Config) { c.Mode = m } }

// WithMinFontSize sets the lower font size bound in px.
func WithMinFontSize(px float64) Option { return func(c *Config) { c.MinFontSizePx = px } }

// WithMaxFontSize sets the upper font size bound in px.
func WithMaxFontSize(px float64) Option { return func(c *Config) { c.MaxFontSizePx = px } }

// WithPrecision sets the convergence step in px. Zero is rejected.
func WithPrecision(px float64) Option { return func(c *Config) { c.FontSizePrecisionPx = px } }

// WithObserver routes warnings and run summaries to o.
func WithObserver(o Observer) Option { return func(c *Config) { c.Observer = o } }

// WithConfig copies every field of base, so callers can derive options from a
// previously built Config.
func WithConfig(base Config) Option { return func(c *Config) { *c = base } }

// DefaultConfig returns the configuration used when no Option is given.
func DefaultConfig() Config {
	return Config{
		Mode:                SingleLine,
		MinFontSizePx:       DefaultMinFontSizePx,
		MaxFontSizePx:       DefaultMaxFontSizePx,
		FontSizePrecisionPx: DefaultFontSizePrecisionPx,
	}
}

// NewConfig merges opts over the defaults and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate returns every problem with the numeric bounds combined into one
// error. Each element is a *ConfigurationError.
func (c Config) Validate() error {
	var err error
	if !isFinite(c.MinFontSizePx) {
		err = multierr.Append(err, &ConfigurationError{Field: "minFontSizePx", Value: c.MinFontSizePx, Reason: "must be finite"})
	} else if c.MinFontSizePx <= 0 {
		err = multierr.Append(err, &ConfigurationError{Field: "minFontSizePx", Value: c.MinFontSizePx, Reason: "must be positive"})
	}
	if !isFinite(c.MaxFontSizePx) {
		err = multierr.Append(err, &ConfigurationError{Field: "maxFontSizePx", Value: c.MaxFontSizePx, Reason: "must be finite"})
	} else if isFinite(c.MinFontSizePx) && c.MaxFontSizePx < c.MinFontSizePx {
		err = multierr.Append(err, &ConfigurationError{Field: "maxFontSizePx", Value: c.MaxFontSizePx, Reason: "must not be below minFontSizePx"})
	}
	switch {
	case !isFinite(c.FontSizePrecisionPx):
		err = multierr.Append(err, &ConfigurationError{Field: "fontSizePrecisionPx", Value: c.FontSizePrecisionPx, Reason: "must be finite"})
	case c.FontSizePrecisionPx == 0:
		err = multierr.Append(err, &ConfigurationError{Field: "fontSizePrecisionPx", Value: c.FontSizePrecisionPx, Reason: "must not be zero"})
	case c.FontSizePrecisionPx < 0:
		err = multierr.Append(err, &ConfigurationError{Field: "fontSizePrecisionPx", Value: c.FontSizePrecisionPx, Reason: "must be positive"})
	}
	if c.Mode < SingleLine || c.Mode > Box {
		err = multierr.Append(err, &ConfigurationError{Field: "mode", Value: float64(c.Mode), Reason: "unknown mode"})
	}
	return err
}

// clamp bounds px to [min, max]. NaN resolves to fallback.
func (c Config) clamp(px, fallback float64) float64 {
	if math.IsNaN(px) {
		px = fallback
		if math.IsNaN(px) {
			px = c.MinFontSizePx
		}
	}
	return math.Min(math.Max(px, c.MinFontSizePx), c.MaxFontSizePx)
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
