package solidlsp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/solidlsp/solidlsp/internal/lsperr"
	"github.com/solidlsp/solidlsp/protocol"
)

// OpenFile opens relativePath, reference-counting an already-open buffer
// rather than re-reading it, and sends textDocument/didOpen the first time
// it is opened. It also begins watching the file's directory for external
// writes, when file watching is enabled. Reopening a buffer the watcher
// has marked Stale refreshes it from disk first.
func (h *Host) OpenFile(ctx context.Context, relativePath string) (*Buffer, error) {
	absPath, err := h.resolveRelative(relativePath)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if b, ok := h.buffers[relativePath]; ok {
		b.RefCount++
		stale := b.Stale
		h.mu.Unlock()
		if stale {
			if err := h.refreshStaleBuffer(ctx, relativePath, absPath, b); err != nil {
				h.Logger.Printf("host: could not refresh stale buffer %s: %v", relativePath, err)
			}
		}
		return b, nil
	}
	h.mu.Unlock()

	contents, err := readFileContents(absPath)
	if err != nil {
		return nil, &lsperr.FileNotFound{Path: relativePath}
	}

	uri := protocol.DocumentURI(PathToURI(absPath))
	buf := newBuffer(uri, relativePath, h.ServerCommand.LanguageID, contents)

	if err := h.handler.SendNotification(ctx, "textDocument/didOpen", protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: buf.LanguageID,
			Version:    buf.Version,
			Text:       buf.Contents,
		},
	}); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.buffers[relativePath] = buf
	h.mu.Unlock()

	if h.watcher != nil {
		if err := h.watcher.WatchDir(filepath.Dir(absPath)); err != nil {
			h.Logger.Printf("host: could not watch directory for %s: %v", relativePath, err)
		}
	}
	return buf, nil
}

// refreshStaleBuffer re-reads a buffer whose file was written to on disk
// by something other than the host itself, logs a warning, and tells the
// server about the new contents with a full-document didChange event.
func (h *Host) refreshStaleBuffer(ctx context.Context, relativePath, absPath string, buf *Buffer) error {
	h.Logger.Printf("solidlsp: %s changed on disk outside the host, refreshing stale buffer", relativePath)
	contents, err := readFileContents(absPath)
	if err != nil {
		return err
	}

	h.mu.Lock()
	buf.setContents(contents)
	buf.Stale = false
	version := buf.Version
	h.mu.Unlock()

	return h.handler.SendNotification(ctx, "textDocument/didChange", protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: buf.URI},
			Version:                version,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{
			{Text: contents},
		},
	})
}

// CloseFile releases one reference to relativePath's open buffer, sending
// textDocument/didClose only once the reference count reaches zero.
func (h *Host) CloseFile(ctx context.Context, relativePath string) error {
	h.mu.Lock()
	buf, ok := h.buffers[relativePath]
	if !ok {
		h.mu.Unlock()
		return nil
	}
	buf.RefCount--
	if buf.RefCount > 0 {
		h.mu.Unlock()
		return nil
	}
	delete(h.buffers, relativePath)
	h.mu.Unlock()

	if h.watcher != nil {
		absPath, err := h.resolveRelative(relativePath)
		if err == nil {
			h.watcher.UnwatchDir(filepath.Dir(absPath))
		}
	}
	return h.handler.SendNotification(ctx, "textDocument/didClose", protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: buf.URI},
	})
}

// InsertTextAtPosition updates the open buffer at relativePath, inserting
// text at (line, col) and notifying the server with a single didChange
// event.
func (h *Host) InsertTextAtPosition(ctx context.Context, relativePath string, line, col int, text string) error {
	h.mu.Lock()
	buf, ok := h.buffers[relativePath]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("solidlsp: %s is not open", relativePath)
	}

	pos := protocol.Position{Line: line, Character: col}
	lines := splitLines(buf.Contents)
	newContents := spliceLines(lines, pos, pos, text)

	h.mu.Lock()
	buf.setContents(newContents)
	version := buf.Version
	h.mu.Unlock()

	return h.handler.SendNotification(ctx, "textDocument/didChange", protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: buf.URI},
			Version:                version,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{
			{Range: &protocol.Range{Start: pos, End: pos}, Text: text},
		},
	})
}

// DeleteTextBetweenPositions deletes the text in [start,end) from the open
// buffer at relativePath and returns the deleted text, notifying the
// server with a single didChange event replacing the range with "".
func (h *Host) DeleteTextBetweenPositions(ctx context.Context, relativePath string, start, end protocol.Position) (string, error) {
	h.mu.Lock()
	buf, ok := h.buffers[relativePath]
	h.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("solidlsp: %s is not open", relativePath)
	}

	deleted := extractBody(buf.Contents, protocol.Range{Start: start, End: end})
	lines := splitLines(buf.Contents)
	newContents := spliceLines(lines, start, end, "")

	h.mu.Lock()
	buf.setContents(newContents)
	version := buf.Version
	h.mu.Unlock()

	err := h.handler.SendNotification(ctx, "textDocument/didChange", protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: buf.URI},
			Version:                version,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{
			{Range: &protocol.Range{Start: start, End: end}, Text: ""},
		},
	})
	return deleted, err
}

// spliceLines rebuilds a document's text with the region [start,end)
// replaced by replacement, operating on pre-split lines so multi-line
// ranges are handled the same way single-line ones are.
func spliceLines(lines []string, start, end protocol.Position, replacement string) string {
	var b strings.Builder
	for i := 0; i < start.Line; i++ {
		b.WriteString(lines[i])
		b.WriteString("\n")
	}
	startLine := lines[start.Line]
	b.WriteString(startLine[:clampCol(startLine, start.Character)])
	b.WriteString(replacement)
	endLine := lines[end.Line]
	b.WriteString(endLine[clampCol(endLine, end.Character):])
	for i := end.Line + 1; i < len(lines); i++ {
		b.WriteString("\n")
		b.WriteString(lines[i])
	}
	return b.String()
}
