package executor

import (
	"fmt"
	"sort"
)

// Tool describes one agent-facing operation's activation metadata: whether
// it is optional (excluded from ToolSet.default()) and whether it is
// capable of editing a file (stripped by read-only mode).
type Tool struct {
	Name     string
	Optional bool
	Editing  bool
}

// defaultTools is the catalog of operations the host exposes, named after
// the solidlsp/retriever/editor methods that implement them. Everything
// editing-capable is non-optional by default; only the free-text
// workspace search is optional, since it is unavailable against language
// servers that never register workspace/executeCommand.
var defaultTools = []Tool{
	{Name: "find_symbol"},
	{Name: "get_symbol_overview"},
	{Name: "find_referencing_symbols"},
	{Name: "request_definition"},
	{Name: "retrieve_content_around_line"},
	{Name: "request_workspace_symbol", Optional: true},
	{Name: "replace_symbol_body", Editing: true},
	{Name: "insert_after_symbol", Editing: true},
	{Name: "insert_before_symbol", Editing: true},
	{Name: "insert_at_line", Editing: true},
	{Name: "delete_lines", Editing: true},
	{Name: "delete_symbol", Editing: true},
}

func toolByName(name string) (Tool, bool) {
	for _, t := range defaultTools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// ToolInclusionDefinition is one overlay applied during activation
// derivation: tools to drop, and optional tools to bring in.
type ToolInclusionDefinition struct {
	ExcludedTools         []string
	IncludedOptionalTools []string
}

// ToolSet is the resolved set of active tool names for one agent.
type ToolSet struct {
	active map[string]bool
}

// DefaultToolSet returns every non-optional tool.
func DefaultToolSet() *ToolSet {
	ts := &ToolSet{active: make(map[string]bool)}
	for _, t := range defaultTools {
		if !t.Optional {
			ts.active[t.Name] = true
		}
	}
	return ts
}

// Contains reports whether name is active.
func (ts *ToolSet) Contains(name string) bool {
	return ts.active[name]
}

// Names returns the active tool names, sorted.
func (ts *ToolSet) Names() []string {
	names := make([]string, 0, len(ts.active))
	for n := range ts.active {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DeriveActivation applies each overlay in order — agent config, context,
// jetbrains-mode, active project, active modes, with the caller
// responsible for ordering the slice that way — on top of
// DefaultToolSet, then strips editing-capable tools when readOnly is
// set. An unknown tool name anywhere is a hard error.
func DeriveActivation(overlays []ToolInclusionDefinition, readOnly bool) (*ToolSet, error) {
	ts := DefaultToolSet()

	for _, overlay := range overlays {
		for _, name := range overlay.IncludedOptionalTools {
			if _, ok := toolByName(name); !ok {
				return nil, fmt.Errorf("executor: unknown tool %q in included_optional_tools", name)
			}
			ts.active[name] = true
		}
		for _, name := range overlay.ExcludedTools {
			if _, ok := toolByName(name); !ok {
				return nil, fmt.Errorf("executor: unknown tool %q in excluded_tools", name)
			}
			delete(ts.active, name)
		}
	}

	if readOnly {
		for _, t := range defaultTools {
			if t.Editing {
				delete(ts.active, t.Name)
			}
		}
	}

	return ts, nil
}
