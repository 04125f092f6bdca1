// Command memgraphd is the memory graph's HTTP front end: it wires the
// library components together and serves the agent-facing operation table
// plus the read-only resources over github.com/gorilla/mux. Grounded on
// eve.evalgo.org/cli.runServer's startup/shutdown sequence: load
// configuration, build services, listen, wait for a signal, shut down with
// a bounded timeout.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/memgraph/memgraph/app"
	"github.com/memgraph/memgraph/httpapi"
	"github.com/memgraph/memgraph/logger"
)

func main() {
	configPath := flag.String("config", "", "path to the memgraph configuration file")
	addr := flag.String("addr", ":8090", "HTTP listen address")
	shutdownTimeout := flag.Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	flag.Parse()

	logger.Configure()
	logger.InitLogBridge()

	if err := run(*configPath, *addr, *shutdownTimeout); err != nil {
		logger.Fatal("memgraphd: %v", err)
	}
}

func run(configPath, addr string, shutdownTimeout time.Duration) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Build(ctx, configPath)
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}
	defer a.Close(context.Background())

	server := &http.Server{
		Addr:              addr,
		Handler:           httpapi.New(a),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.SetHTTPServerErrorLog(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("memgraphd: listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("memgraphd: received %s, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
