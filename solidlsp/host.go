// Package solidlsp implements the Language-Server Host: the public
// façade every tool calls. One Host is constructed per active project; it
// owns a single child language-server process via lsphandler, the open
// file buffers, the ignore rules, the document-symbol disk cache and,
// optionally, a filesystem watcher that detects external edits to open
// buffers.
package solidlsp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/solidlsp/solidlsp/config"
	"github.com/solidlsp/solidlsp/internal/ignore"
	"github.com/solidlsp/solidlsp/internal/lsperr"
	"github.com/solidlsp/solidlsp/lsphandler"
	"github.com/solidlsp/solidlsp/protocol"
	"github.com/solidlsp/solidlsp/watch"
)

// RequestTimeout is the per-LSP-request timeout: config.DefaultToolTimeout
// less the 5s margin executor.ValidateTimeouts requires. It is fixed; it is
// not adjusted to, or checked against, a tool timeout set in project.yml.
const RequestTimeout = 235 * time.Second

// Host is the per-project language-server façade.
type Host struct {
	Logger        *log.Logger
	Root          string
	Config        config.ProjectConfig
	ServerCommand config.ServerCommand

	handler *lsphandler.Handler
	ignore  *ignore.Spec
	watcher *watch.DirWatcher

	mu      sync.Mutex
	buffers map[string]*Buffer // keyed by relative path

	crossFileWaitDone      bool
	workspaceSymbolEnabled bool

	cache *diskCache
}

// New constructs a Host. It does not start the language server; call
// Start for that.
func New(logger *log.Logger, root string, cfg config.ProjectConfig, sc config.ServerCommand) *Host {
	if logger == nil {
		logger = log.Default()
	}
	spec := ignore.New(cfg.IgnoredPaths, true, sc.SourceFileGlobs)
	h := &Host{
		Logger:        logger,
		Root:          root,
		Config:        cfg,
		ServerCommand: sc,
		handler:       lsphandler.New(logger),
		ignore:        spec,
		buffers:       make(map[string]*Buffer),
		cache:         newDiskCache(config.CachePath(root, sc.LanguageID)),
	}
	if !cfg.DisableFileWatch {
		h.watcher = watch.New(logger)
		h.watcher.OnWrite(h.markBufferStale)
	}
	return h
}

// markBufferStale is the watcher callback: an external write to a file
// underneath an open buffer only flips Stale, it does not refresh the
// buffer itself. The refresh (and the warning log) happens lazily, the
// next time the buffer is read or edited through OpenFile.
func (h *Host) markBufferStale(absPath string) {
	rel, err := h.relativeOf(absPath)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	contents, readErr := readFileContents(absPath)
	h.mu.Lock()
	defer h.mu.Unlock()
	if buf, ok := h.buffers[rel]; ok {
		// A write whose contents match the buffer is the host's own
		// write-back, not an external change.
		if readErr == nil && hashContents(contents) == buf.ContentHash {
			return
		}
		buf.Stale = true
	}
}

// Start spawns the configured language server, performs the
// initialize/initialized handshake advertising utf-16 position encoding
// and hierarchical document symbols, registers the handlers the host
// needs for server-initiated traffic, and loads the on-disk document
// symbol cache.
func (h *Host) Start(ctx context.Context) error {
	if len(h.ServerCommand.Command) == 0 {
		return &lsperr.ConfigError{Reason: fmt.Sprintf("no server command configured for language %q", h.ServerCommand.LanguageID)}
	}
	h.registerServerHandlers()
	if err := h.handler.Start(ctx, h.ServerCommand.Command, h.ServerCommand.Env, h.Root); err != nil {
		return err
	}
	return h.handshake(ctx)
}

// StartWithStream wires the host to an already-constructed JSON-RPC
// stream instead of spawning a process, mirroring lsphandler's own
// StartWithStream — it exists so tests can exercise Host against an
// in-process fake language server (internal/testlsp).
func (h *Host) StartWithStream(ctx context.Context, stream jsonrpc2.ObjectStream) error {
	h.registerServerHandlers()
	if err := h.handler.StartWithStream(ctx, stream); err != nil {
		return err
	}
	return h.handshake(ctx)
}

func (h *Host) registerServerHandlers() {
	h.handler.OnRequest("client/registerCapability", h.handleRegisterCapability)
	h.handler.OnRequest("workspace/configuration", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return []interface{}{}, nil
	})
	h.handler.OnRequest("workspace/applyEdit", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return map[string]bool{"applied": false}, nil
	})
	h.handler.OnNotification("textDocument/publishDiagnostics", func(params json.RawMessage) {})
	h.handler.OnNotification("window/logMessage", func(params json.RawMessage) {})
	h.handler.OnNotification("language/status", func(params json.RawMessage) {})
}

// handshake performs the initialize/initialized exchange and loads the
// on-disk document symbol cache, shared by Start and StartWithStream.
func (h *Host) handshake(ctx context.Context) error {
	rootURI := protocol.DocumentURI(PathToURI(h.Root))
	initParams := protocol.InitializeParams{
		ProcessID:             os.Getpid(),
		RootURI:               rootURI,
		WorkspaceFolders:      []protocol.WorkspaceFolder{{URI: rootURI, Name: filepath.Base(h.Root)}},
		InitializationOptions: h.ServerCommand.InitializationOptions,
		Capabilities:          protocol.DefaultClientCapabilities(),
	}
	var result protocol.InitializeResult
	if err := h.handler.SendRequest(ctx, "initialize", initParams, &result, RequestTimeout); err != nil {
		return fmt.Errorf("solidlsp: initialize: %w", err)
	}
	if result.Capabilities.WorkspaceSymbolProvider || result.Capabilities.ExecuteCommandProvider != nil {
		h.mu.Lock()
		h.workspaceSymbolEnabled = true
		h.mu.Unlock()
	}
	if err := h.handler.SendNotification(ctx, "initialized", struct{}{}); err != nil {
		return fmt.Errorf("solidlsp: initialized: %w", err)
	}

	h.cache.load(h.Logger)
	return nil
}

// Stop saves the document-symbol cache (a no-op if nothing changed) and
// shuts the language server down gracefully.
func (h *Host) Stop(ctx context.Context) error {
	h.cache.save(h.Logger)
	if h.watcher != nil {
		h.watcher.Close()
	}
	return h.handler.Shutdown(ctx, 5*time.Second)
}

// Restart restarts the child language server after it has terminated.
// The caller (executor) is responsible for calling this exactly once
// per failure, never retrying a second time against the same failure.
func (h *Host) Restart(ctx context.Context) error {
	h.handler = lsphandler.New(h.Logger)
	h.mu.Lock()
	h.buffers = make(map[string]*Buffer)
	h.crossFileWaitDone = false
	h.mu.Unlock()
	return h.Start(ctx)
}

// Terminated reports whether the underlying language server process has
// exited, either through Stop or unexpectedly. It is false before Start.
func (h *Host) Terminated() bool {
	return h.handler.Terminated()
}

func (h *Host) handleRegisterCapability(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var reg protocol.RegistrationParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &reg); err != nil {
			return nil, nil
		}
	}
	for _, r := range reg.Registrations {
		if r.Method == "workspace/executeCommand" || r.Method == "workspace/symbol" {
			h.mu.Lock()
			h.workspaceSymbolEnabled = true
			h.mu.Unlock()
			break
		}
	}
	return nil, nil
}

// --- path helpers ---

// PathToURI converts an absolute filesystem path to a file:// URI.
func PathToURI(absPath string) string {
	p := filepath.ToSlash(absPath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return "file://" + p
}

// URIToPath converts a file:// URI back to an absolute filesystem path.
func URIToPath(uri protocol.DocumentURI) string {
	s := string(uri)
	s = strings.TrimPrefix(s, "file://")
	return filepath.FromSlash(s)
}

// resolveRelative validates and resolves a project-relative path. Absolute
// paths are rejected.
func (h *Host) resolveRelative(relativePath string) (absPath string, err error) {
	if filepath.IsAbs(relativePath) {
		return "", fmt.Errorf("solidlsp: path %q must be relative to the project root", relativePath)
	}
	abs := filepath.Join(h.Root, relativePath)
	return abs, nil
}

// IsIgnored reports whether relativePath is excluded by the project's
// ignore rules.
func (h *Host) IsIgnored(relativePath string) bool {
	return h.ignore.IsIgnored(filepath.ToSlash(relativePath))
}

// relativeOf returns path relative to the project root, using forward
// slashes regardless of platform.
func (h *Host) relativeOf(absPath string) (string, error) {
	rel, err := filepath.Rel(h.Root, absPath)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// insideRoot reports whether absPath resolves inside the project root.
func (h *Host) insideRoot(absPath string) bool {
	rel, err := filepath.Rel(h.Root, absPath)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(rel, "..")
}
