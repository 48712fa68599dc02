// Package symbol defines UnifiedSymbol, the host's single normalized
// representation of an LSP DocumentSymbol or SymbolInformation (plus the
// synthetic File/Package entries the host builds itself), and the
// name-path resolution algorithm tools use to address a node in a symbol
// tree.
package symbol

import (
	"strings"

	"github.com/solidlsp/solidlsp/protocol"
)

// Unified is the canonical symbol. Parent is a back-pointer; it is
// never populated from the wire, only wired up by the host after
// normalizing a response.
type Unified struct {
	Name           string
	Kind           protocol.SymbolKind
	Location       protocol.Location
	SelectionRange protocol.Range
	Body           string
	Children       []*Unified
	Parent         *Unified
}

// NamePath returns the slash-separated path from the nearest ancestor with
// a nil parent down to s, e.g. "A/method". It does not include a leading
// slash; FindByName interprets a leading slash on the query side only.
func (s *Unified) NamePath() string {
	var parts []string
	for cur := s; cur != nil; cur = cur.Parent {
		parts = append([]string{cur.Name}, parts...)
	}
	return strings.Join(parts, "/")
}

// Walk calls fn for s and every descendant, pre-order.
func (s *Unified) Walk(fn func(*Unified)) {
	fn(s)
	for _, c := range s.Children {
		c.Walk(fn)
	}
}

// AddChild appends child to s.Children and sets child's parent to s.
func (s *Unified) AddChild(child *Unified) {
	child.Parent = s
	s.Children = append(s.Children, child)
}

// FindByName resolves a name-path against a forest of root symbols. A
// leading "/" anchors the match at the roots themselves (i.e. the
// first segment must equal a root's name); otherwise every descendant at
// any depth is considered as a potential start of the path. This function
// only implements the name matching, not path filtering: callers pass a
// root set already narrowed to the files they want searched; see
// retriever.FindByName for the path-scoping behavior.
func FindByName(roots []*Unified, namePath string) []*Unified {
	anchored := strings.HasPrefix(namePath, "/")
	namePath = strings.TrimPrefix(namePath, "/")
	segments := strings.Split(namePath, "/")
	if len(segments) == 0 || segments[0] == "" {
		return nil
	}

	var results []*Unified
	var matchFrom func(node *Unified, segs []string)
	matchFrom = func(node *Unified, segs []string) {
		if node.Name != segs[0] {
			return
		}
		if len(segs) == 1 {
			results = append(results, node)
			return
		}
		for _, c := range node.Children {
			matchFrom(c, segs[1:])
		}
	}

	if anchored {
		for _, r := range roots {
			matchFrom(r, segments)
		}
		return results
	}

	var visitAll func(node *Unified)
	visitAll = func(node *Unified) {
		matchFrom(node, segments)
		for _, c := range node.Children {
			visitAll(c)
		}
	}
	for _, r := range roots {
		visitAll(r)
	}
	return results
}

// ContainerKinds are the kinds request_containing_symbol treats as valid
// containers: Method, Function and Class. Variable is not listed here;
// InnermostContaining considers it only as a fallback.
var ContainerKinds = []protocol.SymbolKind{
	protocol.SKMethod,
	protocol.SKFunction,
	protocol.SKClass,
}

// IsContainerKind reports whether k is one of ContainerKinds or the
// Variable fallback kind.
func IsContainerKind(k protocol.SymbolKind) bool {
	for _, ck := range ContainerKinds {
		if ck == k {
			return true
		}
	}
	return k == protocol.SKVariable
}

// InnermostContaining returns, among all descendants of roots whose range
// contains pos under the given strictness, the one with the greatest
// start line (the innermost container), restricted to ContainerKinds (and
// Variable as a fallback when no stricter kind matches).
func InnermostContaining(roots []*Unified, pos protocol.Position, strict bool) *Unified {
	var best, bestVariable *Unified
	var consider func(*Unified)
	consider = func(n *Unified) {
		isMultiLine := n.Location.Range.Start.Line != n.Location.Range.End.Line
		if n.Location.Range.Contains(pos, strict) {
			if n.Kind == protocol.SKVariable {
				if bestVariable == nil || n.Location.Range.Start.Line > bestVariable.Location.Range.Start.Line {
					bestVariable = n
				}
			} else if IsContainerKind(n.Kind) && isMultiLine {
				if best == nil || n.Location.Range.Start.Line > best.Location.Range.Start.Line {
					best = n
				}
			}
		}
		for _, c := range n.Children {
			consider(c)
		}
	}
	for _, r := range roots {
		consider(r)
	}
	if best != nil {
		return best
	}
	return bestVariable
}
