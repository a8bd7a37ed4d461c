package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRelevant(t *testing.T) {
	base := filepath.Join(t.TempDir(), "creatures")
	w := New(base, []string{"robo", "krip"}, 0, func(context.Context) error { return nil }, zaptest.NewLogger(t))

	cases := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"frame written", fsnotify.Event{Name: filepath.Join(base, "robo", "stand_0.png"), Op: fsnotify.Write}, true},
		{"frame removed", fsnotify.Event{Name: filepath.Join(base, "krip", "move_1.png"), Op: fsnotify.Remove}, true},
		{"sidecar written", fsnotify.Event{Name: filepath.Join(base, "robo", "stand_0.png.import"), Op: fsnotify.Write}, true},
		{"chmod only", fsnotify.Event{Name: filepath.Join(base, "robo", "stand_0.png"), Op: fsnotify.Chmod}, false},
		{"folder created", fsnotify.Event{Name: filepath.Join(base, "krip"), Op: fsnotify.Create}, true},
		{"generated resource", fsnotify.Event{Name: filepath.Join(base, "robo.tres"), Op: fsnotify.Write}, false},
		{"temp file", fsnotify.Event{Name: filepath.Join(base, ".robo.tres.1234"), Op: fsnotify.Create}, false},
		{"unknown folder", fsnotify.Event{Name: filepath.Join(base, "ghost", "stand_0.png"), Op: fsnotify.Write}, false},
		{"nested too deep", fsnotify.Event{Name: filepath.Join(base, "robo", "old", "stand_0.png"), Op: fsnotify.Write}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, w.Relevant(tc.ev))
		})
	}
}

func TestRun_CallsOnChange(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "robo"), 0755))

	var calls atomic.Int32
	w := New(base, []string{"robo"}, 20*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for i := 0; calls.Load() == 0; i++ {
		if time.Now().After(deadline) {
			t.Fatal("change was never reported")
		}
		name := filepath.Join(base, "robo", fmt.Sprintf("stand_%d.png", i))
		require.NoError(t, os.WriteFile(name, []byte("x"), 0644))
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRun_KeepsWatchingAfterFailure(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "robo"), 0755))

	var calls atomic.Int32
	w := New(base, []string{"robo"}, 10*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return errors.New("render failed")
	}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for i := 0; calls.Load() < 2; i++ {
		if time.Now().After(deadline) {
			t.Fatal("watcher stopped after a failed regeneration")
		}
		name := filepath.Join(base, "robo", fmt.Sprintf("move_%d.png", i))
		require.NoError(t, os.WriteFile(name, []byte("x"), 0644))
		time.Sleep(50 * time.Millisecond)
	}
	cancel()
	assert.NoError(t, <-done)
}

func TestRun_MissingBase(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope"), nil, 0, func(context.Context) error { return nil }, zaptest.NewLogger(t))
	assert.Error(t, w.Run(context.Background()))
}
