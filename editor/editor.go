// Package editor implements the Symbol Editor: structural edits
// addressed by name-path rather than by raw line ranges, each going
// through an edited-file context that only writes the result back to disk
// once the edit has fully succeeded.
package editor

import (
	"context"
	"strings"

	"github.com/solidlsp/solidlsp/internal/lsperr"
	"github.com/solidlsp/solidlsp/protocol"
	"github.com/solidlsp/solidlsp/solidlsp"
	"github.com/solidlsp/solidlsp/symbol"
)

// Editor applies symbol-addressed edits to files in a project.
type Editor struct {
	Host *solidlsp.Host

	// OnWriteBack, if set, is called after a successful edit has been
	// written to disk, so a caller can invalidate any "lines read" tracking
	// it keeps for relativePath.
	OnWriteBack func(relativePath string)
}

// New constructs an Editor over an already-started Host.
func New(host *solidlsp.Host) *Editor {
	return &Editor{Host: host}
}

// withEditedFile opens relativePath, runs fn, and only on success writes
// the buffer back to disk and notifies OnWriteBack. On error the on-disk
// file is left untouched.
func (e *Editor) withEditedFile(ctx context.Context, relativePath string, fn func() error) error {
	if _, err := e.Host.OpenFile(ctx, relativePath); err != nil {
		return err
	}
	defer e.Host.CloseFile(ctx, relativePath)

	if err := fn(); err != nil {
		return err
	}

	if err := e.Host.WriteBackToDisk(ctx, relativePath); err != nil {
		return err
	}
	if e.OnWriteBack != nil {
		e.OnWriteBack(relativePath)
	}
	return nil
}

// resolveUnique resolves namePath against relativePath's document symbol
// tree, failing unless exactly one symbol matches.
func (e *Editor) resolveUnique(ctx context.Context, namePath, relativePath string) (*symbol.Unified, error) {
	_, roots, err := e.Host.RequestDocumentSymbols(ctx, relativePath, false)
	if err != nil {
		return nil, err
	}
	matches := symbol.FindByName(roots, namePath)
	switch len(matches) {
	case 0:
		return nil, &lsperr.SymbolNotFound{NamePath: namePath}
	case 1:
		return matches[0], nil
	default:
		locs := make([]string, 0, len(matches))
		for _, m := range matches {
			locs = append(locs, m.NamePath())
		}
		return nil, &lsperr.AmbiguousSymbol{NamePath: namePath, Locations: locs}
	}
}

// ReplaceBody strips body, deletes the resolved symbol's full body range,
// and inserts the stripped body at its start.
func (e *Editor) ReplaceBody(ctx context.Context, namePath, relativePath, body string) error {
	body = strings.TrimSpace(body)
	return e.withEditedFile(ctx, relativePath, func() error {
		sym, err := e.resolveUnique(ctx, namePath, relativePath)
		if err != nil {
			return err
		}
		r := sym.Location.Range
		if _, err := e.Host.DeleteTextBetweenPositions(ctx, relativePath, r.Start, r.End); err != nil {
			return err
		}
		return e.Host.InsertTextAtPosition(ctx, relativePath, r.Start.Line, r.Start.Character, body)
	})
}

// InsertAfterSymbol inserts body on the line following the resolved
// symbol's body-end, normalizing a leading blank line (per the language's
// top-level-definition separation convention) and trailing whitespace to
// exactly one newline.
func (e *Editor) InsertAfterSymbol(ctx context.Context, namePath, relativePath, body string) error {
	return e.withEditedFile(ctx, relativePath, func() error {
		sym, err := e.resolveUnique(ctx, namePath, relativePath)
		if err != nil {
			return err
		}
		line := sym.Location.Range.End.Line + 1
		return e.Host.InsertTextAtPosition(ctx, relativePath, line, 0, normalizeInsertedBody(body))
	})
}

// InsertBeforeSymbol inserts body at the resolved symbol's body-start
// line, with the same blank-line/trailing-whitespace normalization as
// InsertAfterSymbol.
func (e *Editor) InsertBeforeSymbol(ctx context.Context, namePath, relativePath, body string) error {
	return e.withEditedFile(ctx, relativePath, func() error {
		sym, err := e.resolveUnique(ctx, namePath, relativePath)
		if err != nil {
			return err
		}
		line := sym.Location.Range.Start.Line
		return e.Host.InsertTextAtPosition(ctx, relativePath, line, 0, normalizeInsertedBody(body))
	})
}

// InsertAtLine is a raw line insertion at (line, 0), with no body
// normalization.
func (e *Editor) InsertAtLine(ctx context.Context, relativePath string, line int, content string) error {
	return e.withEditedFile(ctx, relativePath, func() error {
		return e.Host.InsertTextAtPosition(ctx, relativePath, line, 0, content)
	})
}

// DeleteLines deletes [startLine,0)..[endLine+1,0), inclusive of both
// ends. When endLine is the file's last line, the deletion is
// clamped to end-of-file rather than reaching past it.
func (e *Editor) DeleteLines(ctx context.Context, relativePath string, startLine, endLine int) error {
	return e.withEditedFile(ctx, relativePath, func() error {
		count, err := e.Host.LineCount(ctx, relativePath)
		if err != nil {
			return err
		}
		start := protocol.Position{Line: startLine, Character: 0}
		end := protocol.Position{Line: endLine + 1, Character: 0}
		if end.Line >= count {
			lastLine, _, _, err := e.Host.RetrieveContentAroundLine(ctx, relativePath, count-1, 0, 0)
			if err != nil {
				return err
			}
			end = protocol.Position{Line: count - 1, Character: len(lastLine)}
		}
		_, err = e.Host.DeleteTextBetweenPositions(ctx, relativePath, start, end)
		return err
	})
}

// DeleteSymbol deletes the resolved symbol's full body range.
func (e *Editor) DeleteSymbol(ctx context.Context, namePath, relativePath string) error {
	return e.withEditedFile(ctx, relativePath, func() error {
		sym, err := e.resolveUnique(ctx, namePath, relativePath)
		if err != nil {
			return err
		}
		_, err = e.Host.DeleteTextBetweenPositions(ctx, relativePath, sym.Location.Range.Start, sym.Location.Range.End)
		return err
	})
}

// normalizeInsertedBody ensures at least one leading blank line — every
// language solidlsp ships a built-in server for separates top-level
// definitions this way — and collapses trailing whitespace to exactly one
// newline.
func normalizeInsertedBody(body string) string {
	body = strings.TrimRight(body, " \t\r\n") + "\n"
	if !strings.HasPrefix(body, "\n") {
		body = "\n" + body
	}
	return body
}
