package binding_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/autofit/binding"
)

const data = `
event:
  name: Launch
  year: 2026
speakers:
  - name: Ada
  - name: Linus
ratio: 1.5
`

func decode(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	if err := yaml.Unmarshal([]byte(data), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestExpandResolvesPaths(t *testing.T) {
	d := decode(t)

	got := binding.Expand("${event.name} ${event.year}: ${speakers[1].name} x${ratio}", d)
	assert.Equal(t, "Launch 2026: Linus x1.5", got.Text)
	assert.Empty(t, got.Missing)
}

func TestExpandFallback(t *testing.T) {
	d := decode(t)

	got := binding.Expand("Hi ${user.name|friend}, ${event.name|x}", d)
	assert.Equal(t, "Hi friend, Launch", got.Text)
	assert.Empty(t, got.Missing)
}

func TestExpandKeepsUnresolved(t *testing.T) {
	d := decode(t)

	got := binding.Expand("${speakers[9].name} ${nope}", d)
	assert.Equal(t, "${speakers[9].name} ${nope}", got.Text)
	assert.Equal(t, []string{"speakers[9].name", "nope"}, got.Missing)
}

func TestInterpolateNilData(t *testing.T) {
	assert.Equal(t, "a ${b} c", binding.Interpolate("a ${b} c", nil))
	assert.Equal(t, "a z c", binding.Interpolate("a ${b|z} c", nil))
}

func TestLookupRejectsBadIndex(t *testing.T) {
	d := decode(t)

	_, ok := binding.Lookup(d, "speakers[x].name")
	assert.False(t, ok)
	_, ok = binding.Lookup(d, "speakers[0")
	assert.False(t, ok)
	v, ok := binding.Lookup(d, "speakers[0].name")
	assert.True(t, ok)
	assert.Equal(t, "Ada", v)
}

func TestDecodeAcceptsJSON(t *testing.T) {
	got, err := binding.Decode([]byte(`{"title": {"main": "Hello"}, "n": [1, 2]}`))
	assert.NoError(t, err)
	assert.Equal(t, "Hello / 2", binding.Interpolate("${title.main} / ${n[1]}", got))
}

func TestLoadFile(t *testing.T) {
	got, err := binding.LoadFile("")
	assert.NoError(t, err)
	assert.Nil(t, got)

	path := filepath.Join(t.TempDir(), "data.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err = binding.LoadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "Launch 2026", binding.Interpolate("${event.name} ${event.year}", got))

	_, err = binding.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
