package solidlsp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solidlsp/solidlsp/config"
	"github.com/solidlsp/solidlsp/internal/testlsp"
	"github.com/solidlsp/solidlsp/protocol"
)

func startTestHost(t *testing.T, root string, responders map[string]testlsp.Responder) (*Host, *testlsp.Server) {
	t.Helper()
	ctx := context.Background()

	merged := map[string]testlsp.Responder{
		"initialize": func(json.RawMessage) (interface{}, error) {
			return protocol.InitializeResult{
				Capabilities: protocol.ServerCapabilities{WorkspaceSymbolProvider: true},
			}, nil
		},
		"textDocument/didOpen":  func(json.RawMessage) (interface{}, error) { return nil, nil },
		"textDocument/didClose": func(json.RawMessage) (interface{}, error) { return nil, nil },
		"textDocument/didChange": func(json.RawMessage) (interface{}, error) { return nil, nil },
	}
	for method, fn := range responders {
		merged[method] = fn
	}

	srv := testlsp.Start(ctx, merged)
	h := New(nil, root, config.ProjectConfig{}, config.ServerCommand{LanguageID: "go"})
	require.NoError(t, h.StartWithStream(ctx, srv.ClientStream))
	return h, srv
}

func TestHostHandshakeEnablesWorkspaceSymbol(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	h, srv := startTestHost(t, dir, nil)
	defer srv.Close()

	require.True(h.workspaceSymbolEnabled)
}

func TestRequestDocumentSymbolsHierarchical(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	require.NoError(os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc Foo() {}\n"), 0o644))

	calls := 0
	h, srv := startTestHost(t, dir, map[string]testlsp.Responder{
		"textDocument/documentSymbol": func(json.RawMessage) (interface{}, error) {
			calls++
			return []protocol.DocumentSymbol{
				{
					Name: "Foo",
					Kind: protocol.SKFunction,
					Range: protocol.Range{
						Start: protocol.Position{Line: 2, Character: 0},
						End:   protocol.Position{Line: 2, Character: 14},
					},
					SelectionRange: protocol.Range{
						Start: protocol.Position{Line: 2, Character: 5},
						End:   protocol.Position{Line: 2, Character: 8},
					},
				},
			}, nil
		},
	})
	defer srv.Close()

	flat, roots, err := h.RequestDocumentSymbols(context.Background(), "main.go", false)
	require.NoError(err)
	require.Len(roots, 1)
	require.Equal("Foo", roots[0].Name)
	require.Len(flat, 1)
	require.Equal(1, calls)

	// Second call must be served from the disk cache without another request.
	_, _, err = h.RequestDocumentSymbols(context.Background(), "main.go", false)
	require.NoError(err)
	require.Equal(1, calls, "second call should hit the cache, not the server")
}

func TestRequestDocumentSymbolsFlatShape(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	require.NoError(os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc Foo() {}\n"), 0o644))

	h, srv := startTestHost(t, dir, map[string]testlsp.Responder{
		"textDocument/documentSymbol": func(json.RawMessage) (interface{}, error) {
			return []protocol.SymbolInformation{
				{
					Name: "Foo",
					Kind: protocol.SKFunction,
					Location: protocol.Location{
						URI: protocol.DocumentURI(PathToURI(filepath.Join(dir, "main.go"))),
						Range: protocol.Range{
							Start: protocol.Position{Line: 2, Character: 5},
							End:   protocol.Position{Line: 2, Character: 8},
						},
					},
				},
			}, nil
		},
	})
	defer srv.Close()

	flat, roots, err := h.RequestDocumentSymbols(context.Background(), "main.go", false)
	require.NoError(err)
	require.Len(roots, 1)
	require.Len(flat, 1)
	require.Equal("Foo", roots[0].Name)
}

func TestOpenFileRefCounting(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	require.NoError(os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))

	didOpens := 0
	didCloses := 0
	h, srv := startTestHost(t, dir, map[string]testlsp.Responder{
		"textDocument/didOpen":  func(json.RawMessage) (interface{}, error) { didOpens++; return nil, nil },
		"textDocument/didClose": func(json.RawMessage) (interface{}, error) { didCloses++; return nil, nil },
	})
	defer srv.Close()

	ctx := context.Background()
	b1, err := h.OpenFile(ctx, "a.go")
	require.NoError(err)
	b2, err := h.OpenFile(ctx, "a.go")
	require.NoError(err)
	require.Same(b1, b2)
	require.Equal(1, didOpens)

	require.NoError(h.CloseFile(ctx, "a.go"))
	require.Equal(0, didCloses, "ref count should still be held open")
	require.NoError(h.CloseFile(ctx, "a.go"))
	require.Equal(1, didCloses)
}

func TestInsertAndDeleteText(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	require.NoError(os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))

	h, srv := startTestHost(t, dir, nil)
	defer srv.Close()

	ctx := context.Background()
	buf, err := h.OpenFile(ctx, "a.go")
	require.NoError(err)
	defer h.CloseFile(ctx, "a.go")

	require.NoError(h.InsertTextAtPosition(ctx, "a.go", 0, len("package a"), " // tag"))
	require.Contains(buf.Contents, "package a // tag")

	deleted, err := h.DeleteTextBetweenPositions(ctx, "a.go",
		protocol.Position{Line: 0, Character: len("package a")},
		protocol.Position{Line: 0, Character: len("package a // tag")},
	)
	require.NoError(err)
	require.Equal(" // tag", deleted)
	require.Equal("package a\n", buf.Contents)
}
