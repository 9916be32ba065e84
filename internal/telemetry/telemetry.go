// Package telemetry exposes Prometheus collectors for the checker and an
// optional HTTP endpoint serving them during long runs.
package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	checksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkvet_checks_total",
			Help: "Total number of completed URL checks, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkvet_attempts_total",
			Help: "Total number of HTTP attempts, labeled by result class.",
		},
		[]string{"result"},
	)

	rewritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linkvet_rewrites_total",
			Help: "Total number of not-found URLs retried through a rewrite rule.",
		},
	)

	inflightChecks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linkvet_inflight_checks",
			Help: "Number of checks currently holding a fetch permit.",
		},
	)

	rateLimitDelaySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linkvet_rate_limit_delay_seconds",
			Help:    "Histogram of per-host rate limit wait durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"host"},
	)
)

// IncCheck records a completed check. Outcome is "success",
// "status_error", or "transport_error".
func IncCheck(outcome string) {
	checksTotal.WithLabelValues(outcome).Inc()
}

// IncAttempt records one HTTP attempt. Result is "ok", a status code, or
// "transport_error".
func IncAttempt(result string) {
	attemptsTotal.WithLabelValues(result).Inc()
}

// IncAttemptStatus records one HTTP attempt that completed with a status code.
func IncAttemptStatus(status int) {
	IncAttempt(strconv.Itoa(status))
}

// IncRewrite records a rewrite-rule substitution.
func IncRewrite() {
	rewritesTotal.Inc()
}

// CheckStarted marks a check as holding a permit.
func CheckStarted() {
	inflightChecks.Inc()
}

// CheckFinished marks a check as having released its permit.
func CheckFinished() {
	inflightChecks.Dec()
}

// ObserveRateLimitDelay records time spent waiting on the per-host limiter.
func ObserveRateLimitDelay(host string, d time.Duration) {
	rateLimitDelaySeconds.WithLabelValues(host).Observe(d.Seconds())
}

// Serve exposes /healthz and /metrics on addr until the context finishes.
// It is intended for long runs where an operator wants to watch progress;
// the caller opts in by configuring a listen address.
func Serve(ctx context.Context, addr string, logger *zap.Logger) {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("metrics endpoint listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics endpoint stopped", zap.Error(err))
		}
	}()
}
