// ABOUTME: Tests for the settings file watcher
// ABOUTME: Uses real fsnotify events on a temp directory and checks for goroutine leaks

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestWatcherReportsExternalChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveSettings(path, DefaultSettings()))

	w, err := NewWatcher(path, WithLogger(zaptest.NewLogger(t)), WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		s   Settings
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := w.Next(ctx)
		done <- result{s, err}
	}()

	// Another process edits the file through the store
	require.NoError(t, NewFileStore(path).Set(context.Background(), KeyFlingThreshold, 2.5))

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, 2.5, r.s.FlingThreshold)
	case <-ctx.Done():
		t.Fatal("watcher did not report the change")
	}
}

func TestWatcherReloadsLooseValuesPerKey(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveSettings(path, DefaultSettings()))

	w, err := NewWatcher(path, WithLogger(zaptest.NewLogger(t)), WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		s   Settings
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := w.Next(ctx)
		done <- result{s, err}
	}()

	// Hand-edited file with string booleans and one unusable key
	content := "scroll_factor = 3.0\ncustom_setting = true\nfling_enabled = \"false\"\nfling_friction = \"sticky\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, 3.0, r.s.ScrollFactor)
		assert.True(t, r.s.CustomSetting)
		assert.False(t, r.s.FlingEnabled)
		assert.Equal(t, DefaultFlingFriction, r.s.FlingFriction)
	case <-ctx.Done():
		t.Fatal("watcher did not report the change")
	}
}

func TestWatcherRunSkipsNoopReloads(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	initial := DefaultSettings()
	require.NoError(t, SaveSettings(path, initial))

	w, err := NewWatcher(path, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	shared := NewSharedSettings(initial)
	updates := make(chan SettingsUpdate, 4)

	runDone := make(chan error, 1)
	go func() {
		runDone <- w.Run(ctx, shared, func(_ Settings, u SettingsUpdate) {
			updates <- u
		})
	}()

	// Same content: no update expected
	require.NoError(t, SaveSettings(path, initial))
	time.Sleep(150 * time.Millisecond)

	changed := initial
	changed.FlingEnabled = false
	require.NoError(t, SaveSettings(path, changed))

	select {
	case u := <-updates:
		require.NotNil(t, u.FlingEnabled)
		assert.False(t, *u.FlingEnabled)
		assert.Nil(t, u.ScrollFactor)
	case <-time.After(5 * time.Second):
		t.Fatal("no update delivered")
	}

	cancel()
	assert.NoError(t, <-runDone)
	assert.Empty(t, updates)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	w, err := NewWatcher(path, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, SaveSettings(filepath.Join(dir, "other.toml"), DefaultSettings()))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err = w.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWatcherClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := NewWatcher(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Next(context.Background())
	assert.ErrorIs(t, err, ErrWatcherClosed)
}
