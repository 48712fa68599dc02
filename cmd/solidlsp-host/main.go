// Command solidlsp-host wires a project root and a per-language
// ServerCommand into a solidlsp.Host and exposes its operations over a
// jsonrpc2 stdio/tcp transport. The thing being served is the host's own
// symbol-intelligence operations, for an agent-orchestration or MCP layer
// to sit in front of.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/sourcegraph/jsonrpc2"

	_ "net/http/pprof"

	"github.com/solidlsp/solidlsp/config"
	"github.com/solidlsp/solidlsp/executor"
	"github.com/solidlsp/solidlsp/solidlsp"
)

var (
	mode         = flag.String("mode", "stdio", "communication mode (stdio|tcp)")
	addr         = flag.String("addr", ":4390", "server listen address (tcp)")
	root         = flag.String("root", ".", "project root directory")
	trace        = flag.Bool("trace", false, "print all requests and responses")
	logfile      = flag.String("logfile", "", "also log to this file (in addition to stderr)")
	printVersion = flag.Bool("version", false, "print version and exit")
	pprof        = flag.String("pprof", "", "start a pprof http server (https://golang.org/pkg/net/http/pprof/)")
)

const version = "v1-dev"

func main() {
	flag.Parse()
	log.SetFlags(0)

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if *printVersion {
		fmt.Println(version)
		return nil
	}

	var logW io.Writer
	if *logfile == "" {
		logW = os.Stderr
	} else {
		f, err := os.Create(*logfile)
		if err != nil {
			return err
		}
		defer f.Close()
		logW = io.MultiWriter(os.Stderr, f)
	}
	logger := log.New(logW, "", log.LstdFlags)

	projectRoot, err := config.DiscoverProjectRoot(*root)
	if err != nil {
		return err
	}
	cfg, err := config.LoadProjectConfig(projectRoot)
	if err != nil {
		return err
	}
	sc, ok := config.DefaultServerCommand(cfg.Language)
	if !ok {
		return fmt.Errorf("solidlsp-host: no built-in server command for language %q (project root %s)", cfg.Language, projectRoot)
	}

	host := solidlsp.New(logger, projectRoot, cfg, sc)
	if err := host.Start(context.Background()); err != nil {
		return fmt.Errorf("solidlsp-host: starting language server: %w", err)
	}
	defer host.Stop(context.Background())

	exec := executor.New(logger, host)
	handler := newHostHandler(host, exec, logger)

	var connOpt []jsonrpc2.ConnOpt
	if *trace {
		connOpt = append(connOpt, jsonrpc2.LogMessages(log.New(logW, "", 0)))
	}

	switch *mode {
	case "tcp":
		lis, err := net.Listen("tcp", *addr)
		if err != nil {
			return err
		}
		defer lis.Close()

		logger.Println("solidlsp-host: listening on", *addr)
		for {
			conn, err := lis.Accept()
			if err != nil {
				return err
			}
			jsonrpc2.NewConn(context.Background(), jsonrpc2.NewBufferedStream(conn, jsonrpc2.VSCodeObjectCodec{}), handler, connOpt...)
		}

	case "stdio":
		logger.Println("solidlsp-host: reading on stdin, writing on stdout")
		<-jsonrpc2.NewConn(context.Background(), jsonrpc2.NewBufferedStream(stdrwc{}, jsonrpc2.VSCodeObjectCodec{}), handler, connOpt...).DisconnectNotify()
		logger.Println("solidlsp-host: connection closed")
		return nil

	default:
		return fmt.Errorf("invalid mode %q", *mode)
	}
}

type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdrwc) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
