package symbol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solidlsp/solidlsp/protocol"
)

func rng(l1, c1, l2, c2 int) protocol.Range {
	return protocol.Range{Start: protocol.Position{Line: l1, Character: c1}, End: protocol.Position{Line: l2, Character: c2}}
}

func TestFindByNameUnanchored(t *testing.T) {
	require := require.New(t)

	root := &Unified{Name: "A", Kind: protocol.SKClass}
	method := &Unified{Name: "foo", Kind: protocol.SKMethod}
	root.AddChild(method)

	got := FindByName([]*Unified{root}, "foo")
	require.Len(got, 1)
	require.Same(method, got[0])
}

func TestFindByNameAnchoredRequiresRootMatch(t *testing.T) {
	require := require.New(t)

	root := &Unified{Name: "A", Kind: protocol.SKClass}
	method := &Unified{Name: "foo", Kind: protocol.SKMethod}
	root.AddChild(method)

	require.Empty(FindByName([]*Unified{root}, "/foo"))
	got := FindByName([]*Unified{root}, "/A/foo")
	require.Len(got, 1)
	require.Same(method, got[0])
}

func TestFindByNameAmbiguous(t *testing.T) {
	require := require.New(t)

	a := &Unified{Name: "dup", Kind: protocol.SKFunction}
	b := &Unified{Name: "dup", Kind: protocol.SKFunction}

	got := FindByName([]*Unified{a, b}, "dup")
	require.Len(got, 2)
}

func TestInnermostContaining(t *testing.T) {
	require := require.New(t)

	class := &Unified{Name: "A", Kind: protocol.SKClass, Location: protocol.Location{Range: rng(0, 0, 20, 0)}}
	method := &Unified{Name: "foo", Kind: protocol.SKMethod, Location: protocol.Location{Range: rng(2, 0, 5, 0)}}
	class.AddChild(method)

	got := InnermostContaining([]*Unified{class}, protocol.Position{Line: 3, Character: 2}, true)
	require.Same(method, got)

	got = InnermostContaining([]*Unified{class}, protocol.Position{Line: 10, Character: 0}, true)
	require.Same(class, got)
}

func TestNamePath(t *testing.T) {
	require := require.New(t)
	root := &Unified{Name: "A"}
	child := &Unified{Name: "foo"}
	root.AddChild(child)
	require.Equal("A/foo", child.NamePath())
}
