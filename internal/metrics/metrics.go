// Package metrics defines the bot's Prometheus collectors and the optional
// HTTP endpoint that exposes them.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papabois_commands_total",
			Help: "Count of processed commands",
		},
		[]string{"command"},
	)
	IdentificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papabois_identifications_total",
			Help: "Count of photo identifications by outcome",
		},
		[]string{"outcome"},
	)
	IdentificationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "papabois_identification_duration_seconds",
			Help:    "Time taken to process one plant photo end to end",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)
	UpstreamFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papabois_upstream_failures_total",
			Help: "Count of failed calls to external services",
		},
		[]string{"service"},
	)
	AwaitingUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "papabois_awaiting_users",
			Help: "Users currently awaiting a photo prompt",
		},
	)
)

// Register adds all collectors to the default registry.
func Register() {
	prometheus.MustRegister(
		CommandsTotal,
		IdentificationsTotal,
		IdentificationDuration,
		UpstreamFailures,
		AwaitingUsers,
	)
}

// Serve runs the /metrics HTTP endpoint until the context is cancelled.
func Serve(ctx context.Context, addr string, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("Metrics endpoint listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Metrics server shutdown failed", "error", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
