// Package rpc provides the Content-Length-framed JSON-RPC 2.0 transport
// used to talk to a spawned language server's stdio. It is a thin
// composition over sourcegraph/jsonrpc2's VSCodeObjectCodec, the same
// codec and framing a Language Server Protocol client or server uses,
// just pointed the other direction: here the host dials out to a child
// process instead of serving one.
package rpc

import (
	"io"

	"github.com/sourcegraph/jsonrpc2"
)

// procStream pairs a child process's stdin and stdout into a single
// io.ReadWriteCloser, the shape jsonrpc2.NewBufferedStream expects.
// Closing it closes stdin first so the child observes EOF on its
// input before the handler tears down the rest of the pipeline.
type procStream struct {
	stdout io.ReadCloser
	stdin  io.WriteCloser
}

// NewProcessStream builds a framed JSON-RPC stream over a child process's
// standard streams, ready to be passed to jsonrpc2.NewConn.
func NewProcessStream(stdout io.ReadCloser, stdin io.WriteCloser) jsonrpc2.ObjectStream {
	return jsonrpc2.NewBufferedStream(procStream{stdout: stdout, stdin: stdin}, jsonrpc2.VSCodeObjectCodec{})
}

func (s procStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s procStream) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

func (s procStream) Close() error {
	if err := s.stdin.Close(); err != nil {
		s.stdout.Close()
		return err
	}
	return s.stdout.Close()
}
