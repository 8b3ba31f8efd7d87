package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ByLCY/autofit/fit"
	"github.com/ByLCY/autofit/renderer"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigurationNoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "single-line", cfg.Fit.Mode)
	assert.Equal(t, fit.DefaultMinFontSizePx, cfg.Fit.MinFontSizePx)
	assert.Equal(t, fit.DefaultMaxFontSizePx, cfg.Fit.MaxFontSizePx)
	assert.Equal(t, fit.DefaultFontSizePrecisionPx, cfg.Fit.PrecisionPx)
	assert.Equal(t, fit.DefaultTickInterval, cfg.Watch.TickInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "normal", cfg.Logging.ConsoleLogger.Level)
}

func TestLoadConfigurationWithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
fit:
  mode: box
  max_font_size_px: 72
render:
  format: png
  scale: 2
watch:
  tick_interval: 50ms
`)
	cfg, err := LoadConfiguration(path)
	require.NoError(t, err)

	assert.Equal(t, "box", cfg.Fit.Mode)
	assert.Equal(t, 72.0, cfg.Fit.MaxFontSizePx)
	// untouched keys keep template defaults
	assert.Equal(t, 8.0, cfg.Fit.MinFontSizePx)
	assert.Equal(t, "png", cfg.Render.Format)
	assert.Equal(t, 2.0, cfg.Render.Scale)
	assert.Equal(t, 50*time.Millisecond, cfg.Watch.TickInterval)

	fc, err := cfg.FitDefaults()
	require.NoError(t, err)
	assert.Equal(t, fit.Box, fc.Mode)
	assert.Equal(t, 72.0, fc.MaxFontSizePx)
}

func TestLoadConfigurationRejectsUnknownField(t *testing.T) {
	_, err := LoadConfiguration(writeConfig(t, "version: 1\nfit:\n  mood: box\n"))
	assert.Error(t, err)
}

func TestLoadConfigurationValidates(t *testing.T) {
	for name, body := range map[string]string{
		"bad version":   "version: 2\n",
		"max below min": "version: 1\nfit:\n  min_font_size_px: 20\n  max_font_size_px: 10\n",
		"zero precise":  "version: 1\nfit:\n  precision_px: 0\n",
		"bad mode":      "version: 1\nfit:\n  mode: diagonal\n",
		"bad format":    "version: 1\nrender:\n  format: svg\n",
		"bad level":     "version: 1\nlogging:\n  console:\n    level: loud\n",
	} {
		_, err := LoadConfiguration(writeConfig(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestDumpRoundTrip(t *testing.T) {
	cfg, err := LoadConfiguration("")
	require.NoError(t, err)

	data, err := Dump(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tick_interval: 16ms")

	back, err := LoadConfiguration(writeConfig(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestPrepareIsValidTemplate(t *testing.T) {
	data, err := Prepare()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(string(data)), "#"))
}

func TestOutputFormat(t *testing.T) {
	cfg, err := LoadConfiguration("")
	require.NoError(t, err)

	f, err := cfg.OutputFormat("poster.png")
	require.NoError(t, err)
	assert.Equal(t, renderer.PNG, f)

	f, err = cfg.OutputFormat("poster.out")
	require.NoError(t, err)
	assert.Equal(t, renderer.PDF, f)
}

func TestLoggerWritesFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "autofit.log")
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "debug", Destination: dest, Mode: "overwrite"},
	}
	log, closer, err := conf.Prepare()
	require.NoError(t, err)
	log.Debug("fitted", zap.String("frame", "Title"))
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fitted")
	assert.Contains(t, string(data), "Title")
}

func TestLoggerFileNeedsDestination(t *testing.T) {
	conf := LoggingConfig{FileLogger: LoggerConfig{Level: "normal"}}
	_, _, err := conf.Prepare()
	assert.Error(t, err)
}
