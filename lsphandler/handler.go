// Package lsphandler owns a single child language-server process: spawning
// it, framing JSON-RPC traffic to and from its stdio via rpc/jsonrpc2,
// correlating requests with responses, fanning out server-initiated
// requests and notifications to registered callbacks, and tearing the
// process down cleanly (or forcibly) on shutdown.
package lsphandler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/solidlsp/solidlsp/internal/lsperr"
	"github.com/solidlsp/solidlsp/rpc"
)

// state is the child process's lifecycle state machine.
type state int

const (
	notStarted state = iota
	running
	shuttingDown
	exited
)

// Request tracks one in-flight call in the handler's pending map for the
// terminated-on-disconnect fan-out. The actual request/response
// correlation is delegated to jsonrpc2.Conn.Call. A request is removed
// from the map once its call returns; status is "pending" until then, or
// "error" if the connection is lost first, and is not exported.
type Request struct {
	ID     uint64
	Method string
	status string // "pending" | "completed" | "error"
}

// RequestHandler responds to a request issued by the server to the client
// (e.g. workspace/configuration, client/registerCapability).
type RequestHandler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// NotificationHandler reacts to a notification issued by the server (e.g.
// textDocument/publishDiagnostics).
type NotificationHandler func(params json.RawMessage)

// Handler owns one child LSP process and its JSON-RPC connection.
type Handler struct {
	Logger *log.Logger

	mu           sync.Mutex
	st           state
	cmd          *exec.Cmd
	conn         *jsonrpc2.Conn
	nextID       uint64
	pending      map[uint64]*Request
	requests     map[string]RequestHandler
	notifys      map[string]NotificationHandler
	disconnectCh chan struct{}
}

// New creates a Handler. logger defaults to log.Default() when nil.
func New(logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		Logger:   logger,
		st:       notStarted,
		pending:  make(map[uint64]*Request),
		requests: make(map[string]RequestHandler),
		notifys:  make(map[string]NotificationHandler),
	}
}

// OnRequest registers a handler for a server-to-client request method.
// Methods with no registered handler are answered with MethodNotFound.
func (h *Handler) OnRequest(method string, fn RequestHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests[method] = fn
}

// OnNotification registers a handler for a server-to-client notification.
func (h *Handler) OnNotification(method string, fn NotificationHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifys[method] = fn
}

// Start spawns the configured command, wires its stdio through the framed
// JSON-RPC transport, and begins dispatching server-initiated traffic. The
// stderr stream is scanned line by line and logged at a severity chosen by
// a simple content heuristic.
func (h *Handler) Start(ctx context.Context, command []string, env []string, dir string) error {
	h.mu.Lock()
	if h.st != notStarted {
		h.mu.Unlock()
		return fmt.Errorf("lsphandler: Start called twice")
	}
	h.mu.Unlock()

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("lsphandler: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("lsphandler: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("lsphandler: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("lsphandler: start: %w", err)
	}

	stream := rpc.NewProcessStream(stdout, stdin)

	h.mu.Lock()
	h.cmd = cmd
	h.mu.Unlock()

	go h.scanStderr(stderr)

	return h.startStream(ctx, stream)
}

// StartWithStream wires the handler to an already-constructed JSON-RPC
// stream instead of spawning a process. It exists so tests (and, in
// principle, an in-process fake language server) can exercise the
// handler's request/response and disconnect semantics without a real LSP
// binary on PATH.
func (h *Handler) StartWithStream(ctx context.Context, stream jsonrpc2.ObjectStream) error {
	h.mu.Lock()
	if h.st != notStarted {
		h.mu.Unlock()
		return fmt.Errorf("lsphandler: Start called twice")
	}
	h.mu.Unlock()
	return h.startStream(ctx, stream)
}

func (h *Handler) startStream(ctx context.Context, stream jsonrpc2.ObjectStream) error {
	disconnect := make(chan struct{})

	h.mu.Lock()
	h.st = running
	h.disconnectCh = disconnect
	h.mu.Unlock()

	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(h.handle))
	h.mu.Lock()
	h.conn = conn
	h.mu.Unlock()

	go h.watchDisconnect(conn)

	return nil
}

func (h *Handler) scanStderr(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		lower := strings.ToLower(line)
		if strings.Contains(lower, "error") || strings.Contains(lower, "exception") || strings.Contains(line, "E[") {
			h.Logger.Printf("handler: [stderr] ERROR %s", line)
		} else {
			h.Logger.Printf("handler: [stderr] INFO %s", line)
		}
	}
}

// watchDisconnect marks the handler exited and every still-pending request
// as failed once the connection observes the child process going away;
// SendRequest reports those failed calls as lsperr.Terminated.
func (h *Handler) watchDisconnect(conn *jsonrpc2.Conn) {
	<-conn.DisconnectNotify()
	h.mu.Lock()
	h.st = exited
	for _, r := range h.pending {
		r.status = "error"
	}
	h.pending = make(map[uint64]*Request)
	ch := h.disconnectCh
	h.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

// Terminated reports whether the child process has exited, either through
// Shutdown or because the connection to it was lost. It is false for a
// handler that was never started.
func (h *Handler) Terminated() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st == exited
}

// handle dispatches incoming server->client requests and notifications.
func (h *Handler) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	var raw json.RawMessage
	if req.Params != nil {
		raw = json.RawMessage(*req.Params)
	}

	if req.Notif {
		h.mu.Lock()
		fn := h.notifys[req.Method]
		h.mu.Unlock()
		if fn != nil {
			fn(raw)
		} else {
			h.Logger.Printf("handler: unhandled notification %s", req.Method)
		}
		return nil, nil
	}

	h.mu.Lock()
	fn := h.requests[req.Method]
	h.mu.Unlock()
	if fn == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: fmt.Sprintf("method not supported: %s", req.Method)}
	}
	return fn(ctx, raw)
}

// SendRequest issues method/params to the server and decodes the result
// into out (which may be nil). It blocks up to timeout.
func (h *Handler) SendRequest(ctx context.Context, method string, params interface{}, out interface{}, timeout time.Duration) error {
	h.mu.Lock()
	if h.st != running {
		h.mu.Unlock()
		return &lsperr.Terminated{}
	}
	conn := h.conn
	h.nextID++
	id := h.nextID
	tracked := &Request{ID: id, Method: method, status: "pending"}
	h.pending[id] = tracked
	h.mu.Unlock()

	callCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := conn.Call(callCtx, method, params, out)

	h.mu.Lock()
	delete(h.pending, id)
	h.mu.Unlock()

	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return &lsperr.Timeout{Method: method, Timeout: timeout.String()}
		}
		// Calls still pending when the connection goes away fail with
		// ErrClosed or an EOF error, which can arrive before watchDisconnect
		// has marked the handler exited.
		if h.Terminated() || err == jsonrpc2.ErrClosed || err == io.ErrUnexpectedEOF || err == io.EOF {
			return &lsperr.Terminated{Cause: err}
		}
		if rpcErr, ok := err.(*jsonrpc2.Error); ok {
			return &lsperr.LSPError{Code: int64(rpcErr.Code), Message: rpcErr.Message}
		}
		return err
	}
	return nil
}

// SendNotification fires a notification with no response expected.
func (h *Handler) SendNotification(ctx context.Context, method string, params interface{}) error {
	h.mu.Lock()
	if h.st != running {
		h.mu.Unlock()
		return &lsperr.Terminated{}
	}
	conn := h.conn
	h.mu.Unlock()
	return conn.Notify(ctx, method, params)
}

// Shutdown performs the graceful LSP shutdown → exit → stop sequence
//: shutdown request, exit notification, close stdin, wait for
// the process to exit, and force-kill if it hasn't within the grace
// period.
func (h *Handler) Shutdown(ctx context.Context, grace time.Duration) error {
	h.mu.Lock()
	if h.st != running {
		h.mu.Unlock()
		return nil
	}
	h.st = shuttingDown
	conn := h.conn
	cmd := h.cmd
	h.mu.Unlock()

	shutdownWait := grace
	if shutdownWait <= 0 {
		shutdownWait = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownWait)
	defer cancel()
	_ = conn.Call(shutdownCtx, "shutdown", nil, nil)
	_ = conn.Notify(ctx, "exit", nil)
	_ = conn.Close()

	if cmd != nil {
		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()

		select {
		case <-done:
		case <-time.After(shutdownWait):
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
			<-done
		}
	}

	h.mu.Lock()
	h.st = exited
	h.mu.Unlock()
	return nil
}
