// Package metrics records Prometheus metrics for relay placement runs.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Run outcomes used as the "outcome" label of runsTotal.
const (
	OutcomeConverged = "converged"
	OutcomeExhausted = "exhausted"
	OutcomeFailed    = "failed"
)

var (
	// runsTotal counts placement runs by terminal outcome.
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_placement_runs_total",
		Help: "Total number of relay placement runs by outcome",
	}, []string{"outcome"})

	// runIterations tracks how many Lloyd iterations a run needed.
	runIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "relay_placement_iterations",
		Help:    "Number of clustering iterations per run",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200},
	})

	// distanceDuration tracks the time spent building one N×K matrix.
	distanceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_distance_matrix_duration_seconds",
		Help:    "Time taken to compute a weighted distance matrix by backend",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"backend"})

	// distanceFallbacks counts primary backend failures recovered by the reference backend.
	distanceFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_distance_fallbacks_total",
		Help: "Total number of distance computations that fell back to the reference backend",
	}, []string{"backend"})

	// refdataLookups counts reference cache lookups by dataset kind and result.
	refdataLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_refdata_cache_lookups_total",
		Help: "Total number of reference data cache lookups by kind and result",
	}, []string{"kind", "result"})

	// relaysPublished counts relay records handed to the repository.
	relaysPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_points_published_total",
		Help: "Total number of relay points written or skipped as duplicates",
	}, []string{"status"})
)

// RecordRun records the outcome of one placement run.
func RecordRun(outcome string, iterations int) {
	runsTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeFailed {
		runIterations.Observe(float64(iterations))
	}
}

// ObserveDistance records the duration of one matrix computation.
func ObserveDistance(backend string, d time.Duration) {
	distanceDuration.WithLabelValues(backend).Observe(d.Seconds())
}

// RecordFallback records that the named backend failed and the reference
// backend took over.
func RecordFallback(backend string) {
	distanceFallbacks.WithLabelValues(backend).Inc()
}

// RecordCacheLookup records a reference data cache hit or miss.
func RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	refdataLookups.WithLabelValues(kind, result).Inc()
}

// RecordPublish records the result of one publish batch.
func RecordPublish(written, duplicates int) {
	relaysPublished.WithLabelValues("written").Add(float64(written))
	relaysPublished.WithLabelValues("duplicate").Add(float64(duplicates))
}

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "metrics: listen")
	}
	return nil
}
