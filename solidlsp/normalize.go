package solidlsp

import (
	"strings"

	"github.com/solidlsp/solidlsp/protocol"
	"github.com/solidlsp/solidlsp/symbol"
)

// splitLines splits source into lines without consuming the line
// terminator, so line indices line up with LSP's zero-based line numbers.
func splitLines(source string) []string {
	return strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
}

// extractBody slices the text of r out of source. Dedent only ever
// applies to the first line (subtracting r.Start.Character); continuation
// lines are returned as-is, which can mis-dedent blocks in languages with
// irregular indentation.
func extractBody(source string, r protocol.Range) string {
	lines := splitLines(source)
	if r.Start.Line < 0 || r.Start.Line >= len(lines) || r.End.Line < 0 || r.End.Line >= len(lines) {
		return ""
	}
	if r.Start.Line == r.End.Line {
		line := lines[r.Start.Line]
		start, end := clampCol(line, r.Start.Character), clampCol(line, r.End.Character)
		if start > end {
			return ""
		}
		return line[start:end]
	}
	var b strings.Builder
	first := lines[r.Start.Line]
	b.WriteString(first[clampCol(first, r.Start.Character):])
	for i := r.Start.Line + 1; i < r.End.Line; i++ {
		b.WriteString("\n")
		b.WriteString(lines[i])
	}
	last := lines[r.End.Line]
	b.WriteString("\n")
	b.WriteString(last[:clampCol(last, r.End.Character)])
	return b.String()
}

func clampCol(line string, col int) int {
	if col < 0 {
		return 0
	}
	if col > len(line) {
		return len(line)
	}
	return col
}

// normalizeDocumentSymbol converts one hierarchical DocumentSymbol (plus
// its children, recursively) into a symbol.Unified, filling in
// server-optional fields: a missing selectionRange falls back to Range,
// and a Location is synthesized from the enclosing file's URI/relative
// path since DocumentSymbol carries no location of its own.
func normalizeDocumentSymbol(uri protocol.DocumentURI, absPath, relativePath string, source string, ds protocol.DocumentSymbol, includeBody bool, parent *symbol.Unified) *symbol.Unified {
	selRange := ds.SelectionRange
	if selRange == (protocol.Range{}) {
		selRange = ds.Range
	}
	u := &symbol.Unified{
		Name: ds.Name,
		Kind: ds.Kind,
		Location: protocol.Location{
			URI:          uri,
			Range:        ds.Range,
			AbsolutePath: absPath,
			RelativePath: relativePath,
		},
		SelectionRange: selRange,
		Parent:         parent,
	}
	if includeBody {
		u.Body = extractBody(source, ds.Range)
	}
	for _, c := range ds.Children {
		u.Children = append(u.Children, normalizeDocumentSymbol(uri, absPath, relativePath, source, c, includeBody, u))
	}
	return u
}

// NormalizeDocumentSymbols converts a textDocument/documentSymbol result
// (hierarchical shape) into the host's flat and rooted views.
func NormalizeDocumentSymbols(uri protocol.DocumentURI, absPath, relativePath, source string, dss []protocol.DocumentSymbol, includeBody bool) (flat, roots []*symbol.Unified) {
	for _, ds := range dss {
		root := normalizeDocumentSymbol(uri, absPath, relativePath, source, ds, includeBody, nil)
		roots = append(roots, root)
		root.Walk(func(s *symbol.Unified) { flat = append(flat, s) })
	}
	return flat, roots
}

// NormalizeSymbolInformation converts the flat textDocument/documentSymbol
// response shape (servers without hierarchicalDocumentSymbolSupport) into
// the host's view. There is no children relationship to reconstruct, so
// every entry is both a flat member and its own root; a missing
// selectionRange and range each fall back to location.range.
func NormalizeSymbolInformation(infos []protocol.SymbolInformation, source string, includeBody bool) (flat, roots []*symbol.Unified) {
	for _, info := range infos {
		loc := info.Location
		u := &symbol.Unified{
			Name:           info.Name,
			Kind:           info.Kind,
			Location:       loc,
			SelectionRange: loc.Range,
		}
		if includeBody {
			u.Body = extractBody(source, loc.Range)
		}
		flat = append(flat, u)
		roots = append(roots, u)
	}
	return flat, roots
}
