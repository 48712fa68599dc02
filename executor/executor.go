// Package executor implements the Agent Executor: a single-worker
// serialized task runner that preserves call ordering against the LSP
// server, plus the tool activation derivation rules.
package executor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/solidlsp/solidlsp/internal/lsperr"
	"github.com/solidlsp/solidlsp/solidlsp"
)

// MinToolTimeout is the smallest accepted tool invocation timeout;
// configurations below this are rejected.
const MinToolTimeout = 10 * time.Second

// MinRequestMargin is how far below the tool timeout the LSP per-request
// timeout must stay.
const MinRequestMargin = 5 * time.Second

// ValidateTimeouts enforces the relationship a tool's overall timeout
// must keep with the LSP request timeout it wraps: the request timeout
// has to leave enough margin before the tool timeout expires.
func ValidateTimeouts(toolTimeout, requestTimeout time.Duration) error {
	if toolTimeout < MinToolTimeout {
		return &lsperr.ConfigError{Reason: fmt.Sprintf("tool timeout %s is below the minimum %s", toolTimeout, MinToolTimeout)}
	}
	if requestTimeout > toolTimeout-MinRequestMargin {
		return &lsperr.ConfigError{Reason: fmt.Sprintf("LSP request timeout %s must be at least %s below the tool timeout %s", requestTimeout, MinRequestMargin, toolTimeout)}
	}
	return nil
}

// TaskFunc is the work submitted to the executor. It receives the context
// under which it should make any LSP calls.
type TaskFunc func(ctx context.Context) (interface{}, error)

// Result is what a submitted task resolves to.
type Result struct {
	Value interface{}
	Err   error
}

// hostController is the subset of *solidlsp.Host the executor's
// preconditions and restart-on-termination logic depend on; it exists so
// tests can substitute a fake language server host.
type hostController interface {
	Terminated() bool
	Start(ctx context.Context) error
	Restart(ctx context.Context) error
}

// Executor serializes tool invocations onto a single logical worker using
// a weight-1 semaphore, so submission order and execution order coincide
// exactly as they would with a true single worker thread.
type Executor struct {
	Host   hostController
	Logger *log.Logger

	sem *semaphore.Weighted

	mu      sync.Mutex
	counter int
}

// New constructs an Executor over host, whose Start has already been
// called; the executor restarts the host's language server after it has
// exited, but does not start a host that was never started.
func New(logger *log.Logger, host *solidlsp.Host) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	var hc hostController
	if host != nil {
		hc = host
	}
	return &Executor{Host: hc, Logger: logger, sem: semaphore.NewWeighted(1)}
}

// nextTaskName assigns a sequential number for log ordering plus a uuid
// for cross-log correlation, since sequence numbers reset across process
// restarts but a task's uuid does not.
func (e *Executor) nextTaskName(label string) string {
	e.mu.Lock()
	e.counter++
	n := e.counter
	e.mu.Unlock()
	return fmt.Sprintf("Task-%d[%s]#%s", n, label, uuid.New().String())
}

// IssueTask waits until no other task is running, so tasks start in
// submission order, then starts fn on its own goroutine and returns a
// channel the caller can receive the eventual Result from. If ctx ends
// while waiting, the channel carries ctx's error instead.
func (e *Executor) IssueTask(ctx context.Context, label string, fn TaskFunc) <-chan Result {
	name := e.nextTaskName(label)
	out := make(chan Result, 1)

	e.Logger.Printf("executor: scheduling %s", name)
	if err := e.sem.Acquire(ctx, 1); err != nil {
		out <- Result{Err: err}
		return out
	}

	go func() {
		defer e.sem.Release(1)

		start := time.Now()
		val, err := e.runWithPreconditions(ctx, name, fn)
		e.Logger.Printf("executor: %s completed in %s", name, time.Since(start))
		out <- Result{Value: val, Err: err}
	}()

	return out
}

// ExecuteTask is the synchronous wrapper over IssueTask.
func (e *Executor) ExecuteTask(ctx context.Context, label string, fn TaskFunc) (interface{}, error) {
	res := <-e.IssueTask(ctx, label, fn)
	return res.Value, res.Err
}

// runWithPreconditions fails fast when there is no host, restarts a
// language server that has exited before running fn, and restarts it
// exactly once more if the call fails with lsperr.Terminated. A host whose
// Start was never called is not started here: its Terminated reports false
// and fn runs against it as it is.
func (e *Executor) runWithPreconditions(ctx context.Context, name string, fn TaskFunc) (interface{}, error) {
	if e.Host == nil {
		return nil, &lsperr.ConfigError{Reason: "no active project"}
	}

	if e.Host.Terminated() {
		if err := e.Host.Restart(ctx); err != nil {
			return nil, fmt.Errorf("executor: %s: could not start language server: %w", name, err)
		}
	}

	val, err := fn(ctx)
	if terminated, ok := asTerminated(err); ok {
		e.Logger.Printf("executor: %s: language server terminated (%v), restarting", name, terminated)
		if restartErr := e.Host.Restart(ctx); restartErr != nil {
			return nil, fmt.Errorf("executor: %s: restart failed: %w", name, restartErr)
		}
		val, err = fn(ctx)
	}
	return val, err
}

func asTerminated(err error) (*lsperr.Terminated, bool) {
	t, ok := err.(*lsperr.Terminated)
	return t, ok
}
