package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchDirReportsWrite(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(os.WriteFile(file, []byte("a"), 0o644))

	w := New(nil)
	defer w.Close()

	events := make(chan string, 4)
	w.OnWrite(func(p string) { events <- p })
	require.NoError(w.WatchDir(dir))

	require.NoError(os.WriteFile(file, []byte("ab"), 0o644))

	select {
	case p := <-events:
		require.Equal(file, p)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for write event")
	}
}

func TestUnwatchDirStopsEvents(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(os.WriteFile(file, []byte("a"), 0o644))

	w := New(nil)
	defer w.Close()

	require.NoError(w.WatchDir(dir))
	w.UnwatchDir(dir)

	events := make(chan string, 4)
	w.OnWrite(func(p string) { events <- p })
	require.NoError(os.WriteFile(file, []byte("ab"), 0o644))

	select {
	case <-events:
		t.Fatal("should not have received an event after unwatching")
	case <-time.After(300 * time.Millisecond):
	}
}
