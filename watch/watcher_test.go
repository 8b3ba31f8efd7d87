package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ByLCY/autofit/layout"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.autofit")
	other := filepath.Join(dir, "other.txt")
	writeFile(t, doc, docWide)

	w, err := NewWatcher(context.Background(), 40*time.Millisecond, doc)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		writeFile(t, doc, docNarrow)
	}
	writeFile(t, other, "ignored")

	select {
	case ev := <-w.Events():
		abs, _ := filepath.Abs(doc)
		assert.Equal(t, abs, ev.Path)
		assert.False(t, ev.Removed)
	case <-time.After(3 * time.Second):
		t.Fatal("no event received")
	}

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected second event for %s", ev.Path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(context.Background(), 0, filepath.Join(t.TempDir(), "x"))
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	_, ok := <-w.Events()
	assert.False(t, ok)
}

func TestRunRerendersOnChange(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.autofit")
	writeFile(t, doc, docWide)

	var (
		mu    sync.Mutex
		sizes []float64
	)
	render := func(res *layout.Result) error {
		mu.Lock()
		sizes = append(sizes, res.Frames[0].FontSize)
		mu.Unlock()
		return nil
	}
	latest := func() float64 {
		mu.Lock()
		defer mu.Unlock()
		if len(sizes) == 0 {
			return 0
		}
		return sizes[len(sizes)-1]
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{
			DocumentPath: doc,
			TickInterval: 5 * time.Millisecond,
			Debounce:     20 * time.Millisecond,
		}, layout.BuildOptions{Typesetter: monoTypesetter{}}, render, zaptest.NewLogger(t))
	}()

	require.Eventually(t, func() bool { return latest() > 39 && latest() < 41 }, 3*time.Second, 10*time.Millisecond)
	writeFile(t, doc, docNarrow)
	require.Eventually(t, func() bool { return latest() > 19 && latest() < 21 }, 3*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestRunFailsOnMissingDocument(t *testing.T) {
	err := Run(context.Background(), Config{DocumentPath: filepath.Join(t.TempDir(), "nope")},
		layout.BuildOptions{Typesetter: monoTypesetter{}}, nil, nil)
	assert.Error(t, err)
}
