// cmd/ipfsapi is a command line client for the RPC API of a running ipfs
// daemon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ipfs-shipyard/ipfsapi/tracing"
	logging "github.com/ipfs/go-log/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
)

// log is the command logger
var log = logging.Logger("ipfsapi/cli")

func main() {
	os.Exit(mainRet())
}

func mainRet() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewTracerProvider(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Errorf("shutting down tracer provider: %s", err)
		}
	}()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())

	env := &cmdEnv{
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		registry: prometheus.NewRegistry(),
	}
	if err := newRootCmd(env).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}
