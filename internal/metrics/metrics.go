package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers wallet-rail metrics. A nil Collector is a no-op so
// services can be wired without metrics in tests.
type Collector struct {
	registry         *prometheus.Registry
	confirms         *prometheus.CounterVec
	failures         *prometheus.CounterVec
	gatewayAttempts  prometheus.Counter
	confirmDurations prometheus.Histogram
	logger           *slog.Logger
}

// New builds a collector with its own registry.
func New(logger *slog.Logger) *Collector {
	registry := prometheus.NewRegistry()
	return &Collector{
		registry: registry,
		confirms: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_operations_confirmed_total",
			Help: "Confirmed ledger operations by transaction type",
		}, []string{"type"}),
		failures: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_operations_failed_total",
			Help: "Failed ledger operations by transaction type",
		}, []string{"type"}),
		gatewayAttempts: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "gateway_attempts_total",
			Help: "Outbound rail attempts including retries",
		}),
		confirmDurations: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "wallet_confirm_duration_seconds",
			Help:    "Time taken by the confirm phase",
			Buckets: prometheus.DefBuckets,
		}),
		logger: logger,
	}
}

// RecordConfirm counts a successful confirm and its duration.
func (c *Collector) RecordConfirm(txType string, d time.Duration) {
	if c == nil {
		return
	}
	c.confirms.WithLabelValues(txType).Inc()
	c.confirmDurations.Observe(d.Seconds())
}

// RecordFailure counts a failed confirm.
func (c *Collector) RecordFailure(txType string) {
	if c == nil {
		return
	}
	c.failures.WithLabelValues(txType).Inc()
}

// RecordGatewayAttempt counts one outbound rail attempt.
func (c *Collector) RecordGatewayAttempt() {
	if c == nil {
		return
	}
	c.gatewayAttempts.Inc()
}

// Handler exposes the registry over HTTP.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on its own listener.
func (c *Collector) StartServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if c.logger != nil {
			c.logger.Info("starting metrics server", "addr", addr)
		}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if c.logger != nil {
				c.logger.Error("metrics server failed", "error", err)
			}
		}
	}()
	return server
}

// Shutdown stops the metrics listener.
func (c *Collector) Shutdown(ctx context.Context, server *http.Server) error {
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
