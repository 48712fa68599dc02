package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/solidlsp/solidlsp/editor"
	"github.com/solidlsp/solidlsp/executor"
	"github.com/solidlsp/solidlsp/retriever"
	"github.com/solidlsp/solidlsp/solidlsp"
)

// hostHandler dispatches jsonrpc2 requests from the front-end (an MCP
// layer or any other client) onto the host's operations, each one run
// through the executor so call ordering against the LSP server is
// preserved.
type hostHandler struct {
	host      *solidlsp.Host
	retriever *retriever.LanguageServerRetriever
	editor    *editor.Editor
	executor  *executor.Executor
	logger    *log.Logger
}

// newHostHandler wraps dispatch in jsonrpc2.HandlerWithError, so
// reply/error-reply framing is handled by jsonrpc2 rather than by hand
// here.
func newHostHandler(host *solidlsp.Host, exec *executor.Executor, logger *log.Logger) jsonrpc2.Handler {
	h := &hostHandler{
		host:      host,
		retriever: retriever.New(host),
		editor:    editor.New(host),
		executor:  exec,
		logger:    logger,
	}
	return jsonrpc2.HandlerWithError(h.handle)
}

func (h *hostHandler) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	return h.dispatch(ctx, req)
}

type findSymbolParams struct {
	NamePath     string `json:"namePath"`
	WithinPath   string `json:"withinPath"`
}

type documentSymbolsParams struct {
	Path        string `json:"path"`
	IncludeBody bool   `json:"includeBody"`
}

type positionParams struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

type replaceBodyParams struct {
	NamePath string `json:"namePath"`
	Path     string `json:"path"`
	Body     string `json:"body"`
}

type insertAtLineParams struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

type deleteLinesParams struct {
	Path      string `json:"path"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

func (h *hostHandler) dispatch(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	var raw json.RawMessage
	if req.Params != nil {
		raw = json.RawMessage(*req.Params)
	}

	switch req.Method {
	case "solidlsp/findSymbol":
		var p findSymbolParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return h.executor.ExecuteTask(ctx, "findSymbol", func(ctx context.Context) (interface{}, error) {
			return h.retriever.FindByName(ctx, p.NamePath, p.WithinPath)
		})

	case "solidlsp/requestDocumentSymbols":
		var p documentSymbolsParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return h.executor.ExecuteTask(ctx, "requestDocumentSymbols", func(ctx context.Context) (interface{}, error) {
			_, roots, err := h.host.RequestDocumentSymbols(ctx, p.Path, p.IncludeBody)
			return roots, err
		})

	case "solidlsp/requestDefinition":
		var p positionParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return h.executor.ExecuteTask(ctx, "requestDefinition", func(ctx context.Context) (interface{}, error) {
			return h.host.RequestDefinition(ctx, p.Path, p.Line, p.Col)
		})

	case "solidlsp/requestReferences":
		var p positionParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return h.executor.ExecuteTask(ctx, "requestReferences", func(ctx context.Context) (interface{}, error) {
			return h.host.RequestReferences(ctx, p.Path, p.Line, p.Col)
		})

	case "solidlsp/replaceSymbolBody":
		var p replaceBodyParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return h.executor.ExecuteTask(ctx, "replaceSymbolBody", func(ctx context.Context) (interface{}, error) {
			return nil, h.editor.ReplaceBody(ctx, p.NamePath, p.Path, p.Body)
		})

	case "solidlsp/insertAtLine":
		var p insertAtLineParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return h.executor.ExecuteTask(ctx, "insertAtLine", func(ctx context.Context) (interface{}, error) {
			return nil, h.editor.InsertAtLine(ctx, p.Path, p.Line, p.Content)
		})

	case "solidlsp/deleteLines":
		var p deleteLinesParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return h.executor.ExecuteTask(ctx, "deleteLines", func(ctx context.Context) (interface{}, error) {
			return nil, h.editor.DeleteLines(ctx, p.Path, p.StartLine, p.EndLine)
		})

	default:
		return nil, fmt.Errorf("method not supported: %s", req.Method)
	}
}
