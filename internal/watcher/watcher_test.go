package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { fired.Add(1) })
	defer d.Stop()

	// Given: a burst of triggers inside one window
	for i := 0; i < 10; i++ {
		d.Trigger()
	}

	// Then: exactly one callback fires
	assert.Eventually(t, func() bool { return fired.Load() == 1 },
		time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestDebouncerFiresPerQuietPeriod(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { fired.Add(1) })
	defer d.Stop()

	d.Trigger()
	require.Eventually(t, func() bool { return fired.Load() == 1 },
		time.Second, 5*time.Millisecond)

	d.Trigger()
	assert.Eventually(t, func() bool { return fired.Load() == 2 },
		time.Second, 5*time.Millisecond)
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { fired.Add(1) })

	d.Trigger()
	d.Stop()
	d.Trigger() // ignored after Stop

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestManifestWatcherDetectsWrite(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "sitemap.xml")
	require.NoError(t, os.WriteFile(manifest, []byte("<urlset/>"), 0644))

	var changes atomic.Int32
	w, err := NewManifestWatcher(manifest, 20*time.Millisecond, func() { changes.Add(1) }, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()

	// Give the watch a moment to attach before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(manifest, []byte("<urlset></urlset>"), 0644))

	assert.Eventually(t, func() bool { return changes.Load() >= 1 },
		3*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}

func TestManifestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "sitemap.xml")
	require.NoError(t, os.WriteFile(manifest, []byte("<urlset/>"), 0644))

	var changes atomic.Int32
	w, err := NewManifestWatcher(manifest, 20*time.Millisecond, func() { changes.Add(1) }, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644))

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), changes.Load())

	cancel()
	<-done
}

func TestManifestWatcherSurvivesAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "sitemap.xml")
	require.NoError(t, os.WriteFile(manifest, []byte("<urlset/>"), 0644))

	var changes atomic.Int32
	w, err := NewManifestWatcher(manifest, 20*time.Millisecond, func() { changes.Add(1) }, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)

	// Write-to-temp-then-rename, the atomic update pattern.
	tmp := filepath.Join(dir, "sitemap.xml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("<urlset></urlset>"), 0644))
	require.NoError(t, os.Rename(tmp, manifest))

	assert.Eventually(t, func() bool { return changes.Load() >= 1 },
		3*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}
