package fonts_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/autofit/fonts"
)

func TestLoadAcceptsPrefixes(t *testing.T) {
	for _, src := range []string{"go-regular", "builtin:go-regular", "embed:GO-REGULAR", "built-in:go-regular"} {
		data, err := fonts.Load(src)
		require.NoError(t, err, src)
		assert.NotEmpty(t, data, src)
	}
}

func TestLoadUnknown(t *testing.T) {
	_, err := fonts.Load("builtin:comic-sans")
	assert.ErrorContains(t, err, "comic-sans")
}

func TestNamesSortedAndContainsDefault(t *testing.T) {
	names := fonts.Names()
	assert.IsNonDecreasing(t, names)
	assert.Contains(t, names, fonts.Default)
	assert.Contains(t, names, "lm-roman")
}

func TestIsBuiltin(t *testing.T) {
	assert.True(t, fonts.IsBuiltin("builtin:go-mono"))
	assert.True(t, fonts.IsBuiltin("embed:go-mono"))
	assert.False(t, fonts.IsBuiltin("fonts/Inter.ttf"))
	assert.Equal(t, "go-mono", fonts.Trim("embed:go-mono"))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Brand.TTF"), []byte("ttf"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.ttf"), 0o755))

	got, err := fonts.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"brand": []byte("ttf")}, got)

	empty, err := fonts.LoadDir("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = fonts.LoadDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
