package solidlsp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/solidlsp/solidlsp/internal/lsperr"
	"github.com/solidlsp/solidlsp/protocol"
)

// waitCrossFileOnce sleeps for the configured cross-file wait exactly once
// per Host (tracked by crossFileWaitDone), before the first
// definition/references call in a session. Some language servers
// (notably Swift's sourcekit-lsp) need this settling time to finish
// cross-file indexing before a position-based query returns complete
// results.
func (h *Host) waitCrossFileOnce() {
	h.mu.Lock()
	if h.crossFileWaitDone {
		h.mu.Unlock()
		return
	}
	h.crossFileWaitDone = true
	wait := h.ServerCommand.Wait()
	h.mu.Unlock()
	time.Sleep(wait)
}

// decodeLocations accepts either LSP response shape for
// textDocument/definition: Location[] or LocationLink[], plus a
// null response (no definition found).
func decodeLocations(raw json.RawMessage) ([]protocol.Location, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var links []protocol.LocationLink
	if err := json.Unmarshal(raw, &links); err == nil && len(links) > 0 && links[0].TargetURI != "" {
		locs := make([]protocol.Location, 0, len(links))
		for _, l := range links {
			locs = append(locs, l.AsLocation())
		}
		return locs, nil
	}

	var locs []protocol.Location
	if err := json.Unmarshal(raw, &locs); err != nil {
		// A single Location rather than an array is also valid per LSP.
		var one protocol.Location
		if err2 := json.Unmarshal(raw, &one); err2 != nil {
			return nil, err
		}
		return []protocol.Location{one}, nil
	}
	return locs, nil
}

// fillPaths populates AbsolutePath/RelativePath on each location from its
// URI, dropping locations that resolve outside the project root or are
// ignored, with a logged warning for each.
func (h *Host) fillPaths(locs []protocol.Location) []protocol.Location {
	out := make([]protocol.Location, 0, len(locs))
	for _, loc := range locs {
		absPath := URIToPath(loc.URI)
		if !h.insideRoot(absPath) {
			h.Logger.Printf("host: dropping location outside project root: %s", absPath)
			continue
		}
		rel, err := h.relativeOf(absPath)
		if err != nil {
			continue
		}
		if h.IsIgnored(rel) {
			h.Logger.Printf("host: dropping location in ignored path: %s", rel)
			continue
		}
		loc.AbsolutePath = absPath
		loc.RelativePath = rel
		out = append(out, loc)
	}
	return out
}

// RequestDefinition issues textDocument/definition at (line, col) in
// relativePath.
func (h *Host) RequestDefinition(ctx context.Context, relativePath string, line, col int) ([]protocol.Location, error) {
	h.waitCrossFileOnce()

	buf, err := h.OpenFile(ctx, relativePath)
	if err != nil {
		return nil, err
	}
	defer h.CloseFile(ctx, relativePath)

	var raw json.RawMessage
	err = h.handler.SendRequest(ctx, "textDocument/definition", protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: buf.URI},
		Position:     protocol.Position{Line: line, Character: col},
	}, &raw, RequestTimeout)
	if err != nil {
		return nil, err
	}

	locs, err := decodeLocations(raw)
	if err != nil {
		return nil, err
	}
	return h.fillPaths(locs), nil
}

// RequestReferences issues textDocument/references at (line, col) in
// relativePath, remapping the LSP internal-error code to a descriptive
// error.
func (h *Host) RequestReferences(ctx context.Context, relativePath string, line, col int) ([]protocol.Location, error) {
	h.waitCrossFileOnce()

	buf, err := h.OpenFile(ctx, relativePath)
	if err != nil {
		return nil, err
	}
	defer h.CloseFile(ctx, relativePath)

	var raw json.RawMessage
	err = h.handler.SendRequest(ctx, "textDocument/references", protocol.ReferenceParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: buf.URI},
			Position:     protocol.Position{Line: line, Character: col},
		},
		Context: protocol.ReferenceContext{IncludeDeclaration: false},
	}, &raw, RequestTimeout)
	if err != nil {
		if lspErr, ok := err.(*lsperr.LSPError); ok && lspErr.Code == lsperr.CodeInternalError {
			return nil, &lsperr.ConfigError{Reason: "language server failed to compute references for " + relativePath}
		}
		return nil, err
	}

	locs, err := decodeLocations(raw)
	if err != nil {
		return nil, err
	}
	return h.fillPaths(locs), nil
}
