package brace

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherInvalidatesCompiledTemplate(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "page.html", "v1")
	// Pin the mtime so only the watcher, not the staleness check, can
	// trigger a recompile.
	pinned := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, pinned, pinned))

	eng, err := New()
	require.NoError(t, err)

	w, err := eng.Watch(dir, ".html")
	require.NoError(t, err)
	defer w.Stop()

	out, err := eng.Render(path, nil)
	require.NoError(t, err)
	require.Equal(t, "v1", out)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	require.NoError(t, os.Chtimes(path, pinned, pinned))

	assert.Eventually(t, func() bool {
		out, err := eng.Render(path, nil)
		return err == nil && out == "v2"
	}, 3*time.Second, 50*time.Millisecond, "watcher should evict the stale compiled template")
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "page.html", "v1")
	pinned := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, pinned, pinned))

	eng, err := New()
	require.NoError(t, err)

	w, err := eng.Watch(dir, ".tpl")
	require.NoError(t, err)
	defer w.Stop()

	out, err := eng.Render(path, nil)
	require.NoError(t, err)
	require.Equal(t, "v1", out)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	require.NoError(t, os.Chtimes(path, pinned, pinned))

	// Give the watcher time to (wrongly) react, then confirm it did not.
	time.Sleep(300 * time.Millisecond)
	out, err = eng.Render(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out)
}

func TestWatcherStop(t *testing.T) {
	eng, err := New()
	require.NoError(t, err)

	w, err := eng.Watch(t.TempDir(), ".html")
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
}

func TestWatchMissingDirectory(t *testing.T) {
	eng, err := New()
	require.NoError(t, err)
	_, err = eng.Watch("/definitely/not/here", ".html")
	assert.Error(t, err)
}
