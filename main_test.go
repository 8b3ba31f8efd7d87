package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const poster = `autofit Poster v1 {
  meta { title: "Poster" }
  canvas { width: 400px height: 200px background: #ffffff }
  frame Title {
    x: 10px y: 10px width: 380px height: 80px
    mode: single-line
    "${event.name|Untitled}"
  }
  frame Body {
    x: 10px y: 100px width: 380px height: 90px
    mode: box
    "Fitting text into boxes without overflow"
  }
}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	cmd := a.rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	_ = a.close()
	return out.String(), err
}

func quietConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autofit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  console:\n    level: none\n"), 0o644))
	return path
}

func TestRenderWritesOutputAndDebug(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "poster.autofit")
	data := filepath.Join(dir, "data.yaml")
	out := filepath.Join(dir, "out", "poster.png")
	debug := filepath.Join(dir, "poster.json")
	require.NoError(t, os.WriteFile(in, []byte(poster), 0o644))
	require.NoError(t, os.WriteFile(data, []byte("event:\n  name: Launch\n"), 0o644))

	_, err := execute(t, "--config", quietConfig(t), "render", in, "-o", out, "--data", data, "--debug-json", debug)
	require.NoError(t, err)

	png, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	raw, err := os.ReadFile(debug)
	require.NoError(t, err)
	var res struct {
		Frames []struct {
			Name     string  `json:"name"`
			Content  string  `json:"content"`
			FontSize float64 `json:"fontSize"`
		} `json:"frames"`
	}
	require.NoError(t, json.Unmarshal(raw, &res))
	require.Len(t, res.Frames, 2)
	assert.Equal(t, "Launch", res.Frames[0].Content)
	assert.Greater(t, res.Frames[0].FontSize, 8.0)
}

func TestRenderDefaultsToConfiguredFormat(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "poster.autofit")
	require.NoError(t, os.WriteFile(in, []byte(poster), 0o644))

	_, err := execute(t, "--config", quietConfig(t), "render", in)
	require.NoError(t, err)

	pdf, err := os.ReadFile(filepath.Join(dir, "poster.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestRenderMissingInput(t *testing.T) {
	_, err := execute(t, "--config", quietConfig(t), "render", filepath.Join(t.TempDir(), "missing.autofit"))
	assert.Error(t, err)
}

func TestMeasurePrintsResult(t *testing.T) {
	out, err := execute(t, "--config", quietConfig(t), "measure", "--width", "300", "--height", "60", "--mode", "single-line", "Hello", "world")
	require.NoError(t, err)

	var res struct {
		Mode       string  `json:"mode"`
		FontSizePx float64 `json:"fontSizePx"`
		Overflows  bool    `json:"overflows"`
		Lines      []any   `json:"lines"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "single-line", res.Mode)
	assert.Greater(t, res.FontSizePx, 8.0)
	assert.LessOrEqual(t, res.FontSizePx, 160.0)
	assert.False(t, res.Overflows)
	assert.Len(t, res.Lines, 1)
}

func TestMeasureRejectsBadBounds(t *testing.T) {
	_, err := execute(t, "--config", quietConfig(t), "measure", "--min", "50", "--max", "10", "x")
	assert.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	out, err := execute(t, "--config", quietConfig(t), "config")
	require.NoError(t, err)
	assert.Contains(t, out, "tick_interval: 16ms")
	assert.Contains(t, out, "level: none")

	out, err = execute(t, "--config", quietConfig(t), "config", "--template")
	require.NoError(t, err)
	assert.Contains(t, out, "version: 1")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "--config", quietConfig(t), "version")
	require.NoError(t, err)
	assert.Equal(t, "autofit dev\n", out)
}
