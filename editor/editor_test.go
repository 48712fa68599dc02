package editor

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
	"github.com/solidlsp/solidlsp/solidlsp"
)

const fooLine = "func Foo() {}"

func startTestHost(t *testing.T, root string) *solidlsp.Host {
	t.Helper()
	ctx := context.Background()
	srv := testlsp.Start(ctx, map[string]testlsp.Responder{
		"initialize": func(json.RawMessage) (interface{}, error) {
			return protocol.InitializeResult{}, nil
		},
		"textDocument/didOpen":   func(json.RawMessage) (interface{}, error) { return nil, nil },
		"textDocument/didClose":  func(json.RawMessage) (interface{}, error) { return nil, nil },
		"textDocument/didChange": func(json.RawMessage) (interface{}, error) { return nil, nil },
		"textDocument/documentSymbol": func(json.RawMessage) (interface{}, error) {
			return []protocol.DocumentSymbol{
				{
					Name: "Foo",
					Kind: protocol.SKFunction,
					Range: protocol.Range{
						Start: protocol.Position{Line: 2, Character: 0},
						End:   protocol.Position{Line: 2, Character: len(fooLine)},
					},
					SelectionRange: protocol.Range{
						Start: protocol.Position{Line: 2, Character: 5},
						End:   protocol.Position{Line: 2, Character: 8},
					},
				},
			}, nil
		},
	})
	t.Cleanup(func() { srv.Close() })

	h := solidlsp.New(nil, root, config.ProjectConfig{}, config.ServerCommand{LanguageID: "go"})
	require.NoError(t, h.StartWithStream(ctx, srv.ClientStream))
	return h
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestReplaceBodyWritesBackToDisk(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "main.go", "package main\n\n"+fooLine+"\n")

	h := startTestHost(t, dir)
	e := New(h)

	require.NoError(e.ReplaceBody(context.Background(), "Foo", "main.go", "func Foo() { return }"))

	got, err := os.ReadFile(path)
	require.NoError(err)
	require.Equal("package main\n\nfunc Foo() { return }\n", string(got))
}

func TestReplaceBodyUnknownSymbolLeavesFileUntouched(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	original := "package main\n\n" + fooLine + "\n"
	path := writeFile(t, dir, "main.go", original)

	h := startTestHost(t, dir)
	e := New(h)

	err := e.ReplaceBody(context.Background(), "Bar", "main.go", "func Bar() {}")
	require.Error(err)

	got, err := os.ReadFile(path)
	require.NoError(err)
	require.Equal(original, string(got))
}

func TestDeleteSymbolRemovesBody(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "main.go", "package main\n\n"+fooLine+"\n")

	h := startTestHost(t, dir)
	e := New(h)

	require.NoError(e.DeleteSymbol(context.Background(), "Foo", "main.go"))

	got, err := os.ReadFile(path)
	require.NoError(err)
	require.Equal("package main\n\n\n", string(got))
}

func TestInsertAfterSymbolNormalizesBody(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "main.go", "package main\n\n"+fooLine+"\n")

	h := startTestHost(t, dir)
	e := New(h)

	var invalidated string
	e.OnWriteBack = func(relativePath string) { invalidated = relativePath }

	require.NoError(e.InsertAfterSymbol(context.Background(), "Foo", "main.go", "func Bar() {}"))

	got, err := os.ReadFile(path)
	require.NoError(err)
	require.Equal("package main\n\n"+fooLine+"\n\nfunc Bar() {}\n", string(got))
	require.Equal("main.go", invalidated)
}

func TestDeleteLinesClampsToEndOfFile(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "main.go", "package main\n\n"+fooLine+"\n")

	h := startTestHost(t, dir)
	e := New(h)

	require.NoError(e.DeleteLines(context.Background(), "main.go", 1, 100))

	got, err := os.ReadFile(path)
	require.NoError(err)
	require.Equal("package main\n", string(got))
}
