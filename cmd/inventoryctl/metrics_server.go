package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/clusterium/invledger/internal/metrics"
)

// runMetricsServer starts the Prometheus endpoint in the background. It
// returns a stop function the caller invokes with a shutdown-bounded
// context.
func runMetricsServer(ctx context.Context, port int) func(context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()

	// A canceled ctx with no explicit stop call is still a shutdown signal
	// (e.g. the caller's select exits on ctx.Done() before reaching the
	// stop function); close the listener rather than leaking it.
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	return func(shutdownCtx context.Context) {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shut down metrics server")
		}
	}
}
