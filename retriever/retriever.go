// Package retriever implements the Symbol Retriever: a thin façade
// over the language-server host that agents call to locate and read
// symbols, without needing to know about buffers, caching or the LSP
// handshake underneath.
package retriever

import (
	"context"

	"github.com/solidlsp/solidlsp/protocol"
	"github.com/solidlsp/solidlsp/solidlsp"
	"github.com/solidlsp/solidlsp/symbol"
)

// Retriever is the shared interface a language-server-backed or
// JetBrains-plugin-backed implementation exposes: a name-path lookup
// optionally scoped to one file. Only the language-server-backed
// implementation is built here; the JetBrains-backed one is out of scope
// and exists only as this interface.
type Retriever interface {
	FindByName(ctx context.Context, namePath string, withinRelativePath string) ([]*symbol.Unified, error)
}

// LanguageServerRetriever is the Retriever backed by a solidlsp.Host.
type LanguageServerRetriever struct {
	Host *solidlsp.Host
}

// New constructs a LanguageServerRetriever over an already-started Host.
func New(host *solidlsp.Host) *LanguageServerRetriever {
	return &LanguageServerRetriever{Host: host}
}

var _ Retriever = (*LanguageServerRetriever)(nil)

// FindByName resolves a name-path against the project's full symbol tree,
// optionally narrowed to withinRelativePath. An empty
// withinRelativePath searches the whole project.
func (r *LanguageServerRetriever) FindByName(ctx context.Context, namePath string, withinRelativePath string) ([]*symbol.Unified, error) {
	roots, err := r.rootsFor(ctx, withinRelativePath)
	if err != nil {
		return nil, err
	}
	return symbol.FindByName(roots, namePath), nil
}

func (r *LanguageServerRetriever) rootsFor(ctx context.Context, withinRelativePath string) ([]*symbol.Unified, error) {
	if withinRelativePath == "" {
		return r.Host.RequestFullSymbolTree(ctx, "", false)
	}
	_, roots, err := r.Host.RequestDocumentSymbols(ctx, withinRelativePath, false)
	return roots, err
}

// RequestReferences delegates to the host, returning the raw Location list
//; callers needing containing-symbol context should use
// RequestReferencingSymbols on the host directly.
func (r *LanguageServerRetriever) RequestReferences(ctx context.Context, relativePath string, line, col int) ([]protocol.Location, error) {
	return r.Host.RequestReferences(ctx, relativePath, line, col)
}

// RequestDocumentSymbols delegates to the host.
func (r *LanguageServerRetriever) RequestDocumentSymbols(ctx context.Context, relativePath string, includeBody bool) (flat, roots []*symbol.Unified, err error) {
	return r.Host.RequestDocumentSymbols(ctx, relativePath, includeBody)
}

// GetSymbolOverview delegates to the host.
func (r *LanguageServerRetriever) GetSymbolOverview(ctx context.Context, relativePath string) ([]solidlsp.OverviewEntry, error) {
	return r.Host.GetSymbolOverview(ctx, relativePath)
}

// RetrieveContentAroundLine reads content around line in relativePath,
// clamped to file bounds.
func (r *LanguageServerRetriever) RetrieveContentAroundLine(ctx context.Context, relativePath string, line, contextBefore, contextAfter int) (content string, startLine, endLine int, err error) {
	return r.Host.RetrieveContentAroundLine(ctx, relativePath, line, contextBefore, contextAfter)
}
