package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tellerj/ollama-stack-sub001/internal/healthcheck"
	"github.com/tellerj/ollama-stack-sub001/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// Start launches the health and metrics HTTP endpoints for watch mode. A
// port of zero disables that endpoint; when both land on the same port they
// share one server. Servers shut down when ctx is canceled.
func Start(ctx context.Context, logger zerolog.Logger, pollInterval time.Duration, tracker *healthcheck.Tracker, collector *metrics.Metrics, healthPort, metricsPort int) {
	muxes := make(map[int]*http.ServeMux)
	labels := make(map[int][]string)
	muxFor := func(port int, label string) *http.ServeMux {
		if muxes[port] == nil {
			muxes[port] = http.NewServeMux()
		}
		labels[port] = append(labels[port], label)
		return muxes[port]
	}

	if healthPort > 0 {
		mux := muxFor(healthPort, "health")
		mux.HandleFunc("/healthz", healthcheck.HealthHandler(tracker, pollInterval))
		mux.HandleFunc("/readyz", healthcheck.ReadyHandler(tracker))
	}
	if metricsPort > 0 && collector != nil {
		muxFor(metricsPort, "metrics").Handle("/metrics", collector.Handler())
	}

	ports := make([]int, 0, len(muxes))
	for port := range muxes {
		ports = append(ports, port)
	}
	sort.Ints(ports)
	for _, port := range ports {
		serve(ctx, logger, muxes[port], port, strings.Join(labels[port], "/"))
	}
}

func serve(ctx context.Context, logger zerolog.Logger, handler http.Handler, port int, label string) {
	log := logger.With().Str("server", label).Int("port", port).Logger()
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http server shutdown failed")
		}
	}()
}
