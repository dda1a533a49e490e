package remote

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bodykeeper/internal/logging"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "/r/measurements/a.json", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/r/measurements/.a.json.icloud", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/r/measurements/.a.json.tmp-123", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "/r/measurements/.DS_Store", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "/r/measurements/a.json", Op: fsnotify.Chmod}, false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, relevant(tt.ev), tt.ev.String())
	}
}

func TestWatchDrive_NotifiesOncePerBurst(t *testing.T) {
	d := NewDrive(t.TempDir())

	var calls atomic.Int32
	w, err := WatchDrive(d, logging.Nop(), 50*time.Millisecond, func() { calls.Add(1) })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for i := 0; i < 5; i++ {
		name := filepath.Join(d.Root(), "measurements", string(rune('a'+i))+".json")
		require.NoError(t, os.WriteFile(name, []byte("{}"), 0o644))
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	require.EqualValues(t, 1, calls.Load())

	require.NoError(t, d.WriteFile(context.Background(), PhotoPath("a"), []byte{1}))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestNewWatcher_MissingDir(t *testing.T) {
	_, err := NewWatcher(logging.Nop(), 0, func() {}, filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
