package executor

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/solidlsp/solidlsp/config"
	"github.com/solidlsp/solidlsp/internal/lsperr"
	"github.com/solidlsp/solidlsp/solidlsp"
)

var errTestTerminated = errors.New("fake language server process exited")

func newDiscardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// fakeHost is a minimal hostController used to exercise the
// restart-on-Terminated path without spawning a real language server.
type fakeHost struct {
	mu           sync.Mutex
	terminated   bool
	restartCalls int
}

func (f *fakeHost) Terminated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.terminated
}

func (f *fakeHost) Start(ctx context.Context) error {
	return nil
}

func (f *fakeHost) Restart(ctx context.Context) error {
	f.mu.Lock()
	f.restartCalls++
	f.terminated = false
	f.mu.Unlock()
	return nil
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	dir := t.TempDir()
	host := solidlsp.New(nil, dir, config.ProjectConfig{}, config.ServerCommand{LanguageID: "test"})
	return New(nil, host)
}

func TestExecutorSerializesOverlappingTasks(t *testing.T) {
	require := require.New(t)
	exec := newTestExecutor(t)

	var aEnd, bStart time.Time
	doneA := exec.IssueTask(context.Background(), "a", func(ctx context.Context) (interface{}, error) {
		time.Sleep(50 * time.Millisecond)
		aEnd = time.Now()
		return nil, nil
	})
	doneB := exec.IssueTask(context.Background(), "b", func(ctx context.Context) (interface{}, error) {
		bStart = time.Now()
		return nil, nil
	})

	resA := <-doneA
	resB := <-doneB
	require.NoError(resA.Err)
	require.NoError(resB.Err)
	require.False(bStart.Before(aEnd), "task b must not start before task a finishes")
}

func TestExecuteTaskRejectsWithNoHost(t *testing.T) {
	require := require.New(t)
	exec := New(nil, nil)
	_, err := exec.ExecuteTask(context.Background(), "x", func(ctx context.Context) (interface{}, error) {
		return "unreachable", nil
	})
	require.Error(err)
}

func TestExecutorRestartsOnceOnTerminated(t *testing.T) {
	require := require.New(t)
	fh := &fakeHost{}
	exec := &Executor{Host: fh, Logger: newDiscardLogger(), sem: semaphore.NewWeighted(1)}

	calls := 0
	val, err := exec.ExecuteTask(context.Background(), "x", func(ctx context.Context) (interface{}, error) {
		calls++
		if calls == 1 {
			fh.mu.Lock()
			fh.terminated = true
			fh.mu.Unlock()
			return nil, &lsperr.Terminated{Cause: errTestTerminated}
		}
		return "recovered", nil
	})

	require.NoError(err)
	require.Equal("recovered", val)
	require.Equal(2, calls)
	require.Equal(1, fh.restartCalls)
}

func TestExecuteTaskReturnsValue(t *testing.T) {
	require := require.New(t)
	exec := newTestExecutor(t)
	val, err := exec.ExecuteTask(context.Background(), "x", func(ctx context.Context) (interface{}, error) {
		return 42, nil
	})
	require.NoError(err)
	require.Equal(42, val)
}
