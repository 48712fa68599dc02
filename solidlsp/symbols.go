package solidlsp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/solidlsp/solidlsp/internal/lsperr"
	"github.com/solidlsp/solidlsp/protocol"
	"github.com/solidlsp/solidlsp/symbol"
)

// probeSymbolShape peeks at the first element of a textDocument/documentSymbol
// response to tell the hierarchical DocumentSymbol[] shape apart from the
// flat SymbolInformation[] shape: only the latter carries a "location".
type probeSymbolShape struct {
	Location *protocol.Location `json:"location"`
}

// decodeDocumentSymbolResponse handles the shape ambiguity between
// hierarchical and flat results, treating a null response as empty.
func decodeDocumentSymbolResponse(raw json.RawMessage) (dss []protocol.DocumentSymbol, infos []protocol.SymbolInformation, err error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil, nil
	}

	var probes []probeSymbolShape
	if err := json.Unmarshal(raw, &probes); err != nil {
		return nil, nil, err
	}
	if len(probes) == 0 {
		return nil, nil, nil
	}
	if probes[0].Location != nil {
		if err := json.Unmarshal(raw, &infos); err != nil {
			return nil, nil, err
		}
		return nil, infos, nil
	}
	if err := json.Unmarshal(raw, &dss); err != nil {
		return nil, nil, err
	}
	return dss, nil, nil
}

// RequestDocumentSymbols returns the flat and rooted symbol views for
// relativePath, consulting the on-disk cache first and falling back to a
// live textDocument/documentSymbol request on a miss.
func (h *Host) RequestDocumentSymbols(ctx context.Context, relativePath string, includeBody bool) (flat, roots []*symbol.Unified, err error) {
	absPath, err := h.resolveRelative(relativePath)
	if err != nil {
		return nil, nil, err
	}

	buf, err := h.OpenFile(ctx, relativePath)
	if err != nil {
		return nil, nil, err
	}
	defer h.CloseFile(ctx, relativePath)

	if cached, ok := h.cache.get(relativePath, includeBody, buf.ContentHash); ok {
		var flat []*symbol.Unified
		for _, r := range cached {
			r.Walk(func(s *symbol.Unified) { flat = append(flat, s) })
		}
		return flat, cached, nil
	}

	var raw json.RawMessage
	if err := h.handler.SendRequest(ctx, "textDocument/documentSymbol", protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: buf.URI},
	}, &raw, RequestTimeout); err != nil {
		return nil, nil, err
	}

	dss, infos, err := decodeDocumentSymbolResponse(raw)
	if err != nil {
		return nil, nil, err
	}

	uri := protocol.DocumentURI(PathToURI(absPath))
	if infos != nil {
		for i := range infos {
			infoAbs := URIToPath(infos[i].Location.URI)
			rel, relErr := h.relativeOf(infoAbs)
			if relErr != nil {
				continue
			}
			infos[i].Location.AbsolutePath = infoAbs
			infos[i].Location.RelativePath = rel
		}
		flat, roots = NormalizeSymbolInformation(infos, buf.Contents, includeBody)
	} else {
		flat, roots = NormalizeDocumentSymbols(uri, absPath, relativePath, buf.Contents, dss, includeBody)
	}

	h.cache.put(relativePath, includeBody, buf.ContentHash, roots)
	return flat, roots, nil
}

// RequestFullSymbolTree walks the filesystem from within (project-relative,
// "" meaning the project root), respecting ignore rules, synthesizing a
// Package symbol per directory and a File symbol per file, with each
// File's children populated from RequestDocumentSymbols.
func (h *Host) RequestFullSymbolTree(ctx context.Context, within string, includeBody bool) ([]*symbol.Unified, error) {
	rootAbs := h.Root
	if within != "" {
		abs, err := h.resolveRelative(within)
		if err != nil {
			return nil, err
		}
		rootAbs = abs
	}
	pkg, err := h.buildPackageTree(ctx, rootAbs, includeBody)
	if err != nil {
		return nil, err
	}
	return []*symbol.Unified{pkg}, nil
}

func (h *Host) buildPackageTree(ctx context.Context, absDir string, includeBody bool) (*symbol.Unified, error) {
	rel, err := h.relativeOf(absDir)
	if err != nil {
		rel = ""
	}
	pkg := &symbol.Unified{
		Name: filepath.Base(absDir),
		Kind: protocol.SKPackage,
		Location: protocol.Location{
			AbsolutePath: absDir,
			RelativePath: rel,
		},
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		childAbs := filepath.Join(absDir, e.Name())
		childRel, err := h.relativeOf(childAbs)
		if err != nil {
			continue
		}
		childRel = filepath.ToSlash(childRel)
		if h.IsIgnored(childRel) {
			continue
		}

		if e.IsDir() {
			child, err := h.buildPackageTree(ctx, childAbs, includeBody)
			if err != nil {
				h.Logger.Printf("host: skipping directory %s: %v", childRel, err)
				continue
			}
			pkg.AddChild(child)
			continue
		}

		fileSym := &symbol.Unified{
			Name: e.Name(),
			Kind: protocol.SKFile,
			Location: protocol.Location{
				AbsolutePath: childAbs,
				RelativePath: childRel,
			},
		}
		pkg.AddChild(fileSym)

		_, docRoots, err := h.RequestDocumentSymbols(ctx, childRel, includeBody)
		if err != nil {
			h.Logger.Printf("host: could not fetch document symbols for %s: %v", childRel, err)
			continue
		}
		for _, r := range docRoots {
			fileSym.AddChild(r)
		}
	}
	return pkg, nil
}

// RequestContainingSymbol returns the innermost container symbol at
// (line, col), or nil if the line is blank or no container encloses the
// position.
func (h *Host) RequestContainingSymbol(ctx context.Context, relativePath string, line, col int, strict, includeBody bool) (*symbol.Unified, error) {
	buf, err := h.OpenFile(ctx, relativePath)
	if err != nil {
		return nil, err
	}
	defer h.CloseFile(ctx, relativePath)

	lines := splitLines(buf.Contents)
	if line < 0 || line >= len(lines) || strings.TrimSpace(lines[line]) == "" {
		return nil, nil
	}

	_, roots, err := h.RequestDocumentSymbols(ctx, relativePath, includeBody)
	if err != nil {
		return nil, err
	}
	pos := protocol.Position{Line: line, Character: col}
	return symbol.InnermostContaining(roots, pos, strict), nil
}

// RequestDefiningSymbol resolves the definition of the identifier at
// (line, col), then returns the (non-strict) containing symbol at the
// definition site.
func (h *Host) RequestDefiningSymbol(ctx context.Context, relativePath string, line, col int, includeBody bool) (*symbol.Unified, error) {
	locs, err := h.RequestDefinition(ctx, relativePath, line, col)
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, nil
	}
	def := locs[0]
	return h.RequestContainingSymbol(ctx, def.RelativePath, def.Range.Start.Line, def.Range.Start.Character, false, includeBody)
}

// ReferencingSymbol is one entry of RequestReferencingSymbols' result: the
// symbol found to contain a reference, plus the reference's own position.
type ReferencingSymbol struct {
	Symbol   *symbol.Unified
	RefLine  int
	RefChar  int
}

// RequestReferencingSymbols returns, for every reference to the symbol at
// (line, col), the symbol containing that reference together with the
// reference's position. Two fallbacks apply when no containing
// symbol is found directly: a heuristic "ident." pattern match against a
// Variable in the referenced file, then (if includeFileSymbols) a
// synthetic File symbol. Self-references are excluded unless includeSelf;
// same-name-same-kind matches (an import heuristic) are excluded unless
// includeImports.
func (h *Host) RequestReferencingSymbols(ctx context.Context, relativePath string, line, col int, includeSelf, includeImports, includeFileSymbols, includeBody bool) ([]ReferencingSymbol, error) {
	origin, err := h.RequestContainingSymbol(ctx, relativePath, line, col, true, false)
	if err != nil {
		return nil, err
	}

	refs, err := h.RequestReferences(ctx, relativePath, line, col)
	if err != nil {
		return nil, err
	}

	var out []ReferencingSymbol
	for _, ref := range refs {
		container, err := h.RequestContainingSymbol(ctx, ref.RelativePath, ref.Range.Start.Line, ref.Range.Start.Character, false, includeBody)
		if err != nil {
			h.Logger.Printf("host: could not resolve containing symbol for reference in %s: %v", ref.RelativePath, err)
			continue
		}

		if container == nil {
			container = h.identHeuristicFallback(ctx, ref, includeBody)
		}
		if container == nil && includeFileSymbols {
			container = &symbol.Unified{
				Name: filepath.Base(ref.RelativePath),
				Kind: protocol.SKFile,
				Location: protocol.Location{
					AbsolutePath: ref.AbsolutePath,
					RelativePath: ref.RelativePath,
				},
			}
		}
		if container == nil {
			continue
		}
		if container.Kind == protocol.SKFile && !includeFileSymbols {
			continue
		}

		// A reference whose position is exactly the containing symbol's own
		// selection range is the symbol's defining occurrence showing up in
		// its own reference list, not a use of it elsewhere.
		if container.Location.RelativePath == relativePath &&
			container.SelectionRange.Start.Line == ref.Range.Start.Line &&
			container.SelectionRange.Start.Character == ref.Range.Start.Character {
			if !includeSelf {
				continue
			}
			out = append(out, ReferencingSymbol{Symbol: container, RefLine: ref.Range.Start.Line, RefChar: ref.Range.Start.Character})
			continue
		}

		if !includeImports && origin != nil && container.Name == origin.Name && container.Kind == origin.Kind {
			continue
		}

		out = append(out, ReferencingSymbol{Symbol: container, RefLine: ref.Range.Start.Line, RefChar: ref.Range.Start.Character})
	}
	return out, nil
}

// identHeuristicFallback implements the "ident." pattern fallback: when a
// reference line looks like "receiver.identifier", look up identifier as a
// Variable in the referenced file's document symbols.
func (h *Host) identHeuristicFallback(ctx context.Context, ref protocol.Location, includeBody bool) *symbol.Unified {
	flat, _, err := h.RequestDocumentSymbols(ctx, ref.RelativePath, includeBody)
	if err != nil {
		return nil
	}

	buf, err := h.OpenFile(ctx, ref.RelativePath)
	if err != nil {
		return nil
	}
	defer h.CloseFile(ctx, ref.RelativePath)

	lines := splitLines(buf.Contents)
	if ref.Range.Start.Line < 0 || ref.Range.Start.Line >= len(lines) {
		return nil
	}
	line := lines[ref.Range.Start.Line]
	idx := strings.LastIndex(line[:clampCol(line, ref.Range.Start.Character)], ".")
	if idx == -1 {
		return nil
	}
	rest := line[idx+1:]
	name := strings.TrimRightFunc(rest, func(r rune) bool {
		return !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	})
	if name == "" {
		return nil
	}
	for _, s := range flat {
		if s.Name == name && s.Kind == protocol.SKVariable {
			return s
		}
	}
	return nil
}

// RequestWorkspaceSymbol issues workspace/symbol, gated on
// workspaceSymbolEnabled: set when the initialize result advertises
// workspaceSymbolProvider or executeCommandProvider, or when the server
// registers workspace/executeCommand or workspace/symbol. Results are
// flat, kind-only symbols with no children.
func (h *Host) RequestWorkspaceSymbol(ctx context.Context, query string) ([]*symbol.Unified, error) {
	h.mu.Lock()
	enabled := h.workspaceSymbolEnabled
	h.mu.Unlock()
	if !enabled {
		return nil, &lsperr.ConfigError{Reason: "workspace symbol search is not available for this language server"}
	}

	var infos []protocol.SymbolInformation
	if err := h.handler.SendRequest(ctx, "workspace/symbol", protocol.WorkspaceSymbolParams{Query: query}, &infos, RequestTimeout); err != nil {
		return nil, err
	}

	for i := range infos {
		absPath := URIToPath(infos[i].Location.URI)
		rel, err := h.relativeOf(absPath)
		if err != nil {
			continue
		}
		infos[i].Location.AbsolutePath = absPath
		infos[i].Location.RelativePath = rel
	}

	_, roots := NormalizeSymbolInformation(infos, "", false)
	return roots, nil
}

// OverviewEntry is one line of GetSymbolOverview's table-of-contents
// listing: a name path and its kind, with no body or full range.
type OverviewEntry struct {
	NamePath string
	Kind     protocol.SymbolKind
}

// GetSymbolOverview returns a condensed (name_path, kind) listing of every
// symbol in relativePath: a cheap table-of-contents agents consult before
// drilling in with FindByName.
func (h *Host) GetSymbolOverview(ctx context.Context, relativePath string) ([]OverviewEntry, error) {
	flat, _, err := h.RequestDocumentSymbols(ctx, relativePath, false)
	if err != nil {
		return nil, err
	}
	overview := make([]OverviewEntry, 0, len(flat))
	for _, s := range flat {
		overview = append(overview, OverviewEntry{NamePath: s.NamePath(), Kind: s.Kind})
	}
	return overview, nil
}
