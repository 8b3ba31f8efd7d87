// Package config loads the application configuration: an embedded YAML
// template with the defaults, optionally overlaid by a user file.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"github.com/ByLCY/autofit/fit"
	"github.com/ByLCY/autofit/renderer"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	FitConfig struct {
		Mode          string  `yaml:"mode" validate:"required"`
		MinFontSizePx float64 `yaml:"min_font_size_px" validate:"gt=0"`
		MaxFontSizePx float64 `yaml:"max_font_size_px" validate:"gtefield=MinFontSizePx"`
		PrecisionPx   float64 `yaml:"precision_px" validate:"gt=0"`
	}

	RenderConfig struct {
		Format      string  `yaml:"format" validate:"oneof=pdf png jpeg jpg"`
		Scale       float64 `yaml:"scale" validate:"gt=0,lte=16"`
		JPEGQuality int     `yaml:"jpeg_quality" validate:"min=40,max=100"`
		FontsDir    string  `yaml:"fonts_dir"`
		Outline     bool    `yaml:"outline"`
	}

	WatchConfig struct {
		TickInterval time.Duration `yaml:"tick_interval" validate:"gt=0"`
		Debounce     time.Duration `yaml:"debounce" validate:"gte=0"`
	}

	TracingConfig struct {
		Enable      bool   `yaml:"enable"`
		Destination string `yaml:"destination,omitempty"`
		Pretty      bool   `yaml:"pretty"`
	}

	Config struct {
		Version int           `yaml:"version" validate:"eq=1"`
		Fit     FitConfig     `yaml:"fit"`
		Render  RenderConfig  `yaml:"render"`
		Watch   WatchConfig   `yaml:"watch"`
		Logging LoggingConfig `yaml:"logging"`
		Tracing TracingConfig `yaml:"tracing"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we defined are accepted, so yaml.Unmarshal cannot be used
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
		// mode names are owned by the fit package
		if _, err := fit.ParseMode(cfg.Fit.Mode); err != nil {
			return nil, fmt.Errorf("fit.mode: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of the expanded configuration template to
// provide sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

// Dump returns the effective configuration as YAML.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}

// FitDefaults converts the fit section into a validated fit.Config.
func (c *Config) FitDefaults(opts ...fit.Option) (fit.Config, error) {
	mode, err := fit.ParseMode(c.Fit.Mode)
	if err != nil {
		return fit.Config{}, err
	}
	return fit.NewConfig(append([]fit.Option{
		fit.WithMode(mode),
		fit.WithMinFontSize(c.Fit.MinFontSizePx),
		fit.WithMaxFontSize(c.Fit.MaxFontSizePx),
		fit.WithPrecision(c.Fit.PrecisionPx),
	}, opts...)...)
}

// OutputFormat returns the configured format unless path has a known
// extension.
func (c *Config) OutputFormat(path string) (renderer.Format, error) {
	if f, err := renderer.FormatFromPath(path); err == nil {
		return f, nil
	}
	return renderer.ParseFormat(c.Render.Format)
}
