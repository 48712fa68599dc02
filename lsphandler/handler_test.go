package lsphandler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/solidlsp/solidlsp/internal/lsperr"
	"github.com/solidlsp/solidlsp/internal/testlsp"
)

// TestSendRequestTimesOut drives the handler against a child that reads
// stdin but never writes anything to stdout, so no response ever arrives
// and a request against it must time out rather than hang.
func TestSendRequestTimesOut(t *testing.T) {
	require := require.New(t)

	h := New(nil)
	ctx := context.Background()
	require.NoError(h.Start(ctx, []string{"sh", "-c", "cat >/dev/null"}, nil, t.TempDir()))
	defer h.Shutdown(ctx, time.Second)

	err := h.SendRequest(ctx, "textDocument/documentSymbol", map[string]string{}, nil, 200*time.Millisecond)
	require.Error(err)
	var timeout *lsperr.Timeout
	require.ErrorAs(err, &timeout)
}

// TestNotifyDoesNotBlock verifies fire-and-forget notifications succeed
// without waiting on a response, even against a peer that never replies.
func TestNotifyDoesNotBlock(t *testing.T) {
	require := require.New(t)

	h := New(nil)
	ctx := context.Background()
	require.NoError(h.Start(ctx, []string{"cat"}, nil, t.TempDir()))
	defer h.Shutdown(ctx, time.Second)

	require.NoError(h.SendNotification(ctx, "textDocument/didOpen", map[string]string{}))
}

// TestShutdownTerminatesProcess ensures Shutdown leaves the handler in the
// exited state and does not hang waiting on the child.
func TestShutdownTerminatesProcess(t *testing.T) {
	require := require.New(t)

	h := New(nil)
	ctx := context.Background()
	require.NoError(h.Start(ctx, []string{"cat"}, nil, t.TempDir()))

	require.NoError(h.Shutdown(ctx, time.Second))
	require.True(h.Terminated())
}

// TestSendRequestAgainstFakeServer exercises request/response correlation
// end to end against an in-process fake server instead of a real LSP
// binary.
func TestSendRequestAgainstFakeServer(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv := testlsp.Start(ctx, map[string]testlsp.Responder{
		"initialize": func(json.RawMessage) (interface{}, error) {
			return map[string]interface{}{"capabilities": map[string]interface{}{}}, nil
		},
	})
	defer srv.Close()

	h := New(nil)
	require.NoError(h.StartWithStream(ctx, srv.ClientStream))

	var result map[string]interface{}
	err := h.SendRequest(ctx, "initialize", map[string]string{}, &result, 2*time.Second)
	require.NoError(err)
	require.Contains(result, "capabilities")
}

// TestDisconnectFailsPendingRequests verifies that when the fake server
// goes away mid-call, the handler surfaces a Terminated error rather than
// hanging.
func TestDisconnectFailsPendingRequests(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	block := make(chan struct{})
	srv := testlsp.Start(ctx, map[string]testlsp.Responder{
		"textDocument/references": func(json.RawMessage) (interface{}, error) {
			<-block
			return nil, nil
		},
	})

	h := New(nil)
	require.NoError(h.StartWithStream(ctx, srv.ClientStream))

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.SendRequest(ctx, "textDocument/references", map[string]string{}, nil, 5*time.Second)
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(srv.Close())
	close(block)

	err := <-errCh
	require.Error(err)
	var terminated *lsperr.Terminated
	require.ErrorAs(err, &terminated)
}
