// Package testlsp provides an in-process fake language server used by
// tests across lsphandler and solidlsp: a net.Pipe-backed JSON-RPC
// connection driven by a table of canned responders, so the higher
// layers can be exercised without a real LSP binary on PATH.
package testlsp

import (
	"context"
	"encoding/json"
	"net"

	"github.com/sourcegraph/jsonrpc2"
)

// Responder produces a result (or error) for one method.
type Responder func(params json.RawMessage) (interface{}, error)

// Server is a running fake language server; Close tears down both ends of
// the pipe.
type Server struct {
	ClientStream jsonrpc2.ObjectStream
	conn         *jsonrpc2.Conn
}

// Start creates a connected pair of JSON-RPC streams over net.Pipe, serves
// the server side using responders, and returns the client side stream
// ready to be passed to lsphandler.Handler.StartWithStream.
func Start(ctx context.Context, responders map[string]Responder) *Server {
	clientConn, serverConn := net.Pipe()

	clientStream := jsonrpc2.NewBufferedStream(clientConn, jsonrpc2.VSCodeObjectCodec{})
	serverStream := jsonrpc2.NewBufferedStream(serverConn, jsonrpc2.VSCodeObjectCodec{})

	handler := jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
		fn, ok := responders[req.Method]
		if !ok {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "unhandled: " + req.Method}
		}
		var raw json.RawMessage
		if req.Params != nil {
			raw = json.RawMessage(*req.Params)
		}
		return fn(raw)
	})

	conn := jsonrpc2.NewConn(ctx, serverStream, handler)

	return &Server{ClientStream: clientStream, conn: conn}
}

// Close closes the server-side connection, which in turn causes the
// client's stream to observe EOF/disconnect.
func (s *Server) Close() error {
	return s.conn.Close()
}
