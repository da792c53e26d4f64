package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and series generation.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	cacheLatency      prometheus.Observer
	cacheHitRatio     prometheus.Gauge
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	seriesRuns        *prometheus.CounterVec
	seriesRunDuration *prometheus.HistogramVec
	occurrences       *prometheus.CounterVec
	sweepJobs         *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "availability_lookup_seconds",
		Help:    "Latency of availability lookups served through the run-scoped cache",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "availability_cache_hit_ratio",
		Help: "Ratio of availability cache hits to total lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_cache_hits_total",
		Help: "Total availability cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_cache_misses_total",
		Help: "Total availability cache misses",
	})

	seriesRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "class_series_runs_total",
		Help: "Class series extension runs by mode and outcome",
	}, []string{"mode", "outcome"})

	seriesRunDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "class_series_run_duration_seconds",
		Help:    "Duration of class series extension runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	occurrences := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "class_series_occurrences_total",
		Help: "Occurrences handled by extension runs, by outcome",
	}, []string{"outcome"})

	sweepJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "class_series_sweep_jobs_total",
		Help: "Background sweep jobs by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHitRatio, cacheHits, cacheMisses,
		seriesRuns, seriesRunDuration, occurrences, sweepJobs, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:          registry,
		handler:           handler,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheHitRatio:     cacheHitRatio,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		seriesRuns:        seriesRuns,
		seriesRunDuration: seriesRunDuration,
		occurrences:       occurrences,
		sweepJobs:         sweepJobs,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records availability cache hit/miss metrics and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveSeriesRun records one extension or preview run. outcome is "ok" or an error code.
func (m *MetricsService) ObserveSeriesRun(mode, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.seriesRuns.WithLabelValues(mode, outcome).Inc()
	m.seriesRunDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// AddOccurrences accumulates per-outcome occurrence counts of a persisted run.
func (m *MetricsService) AddOccurrences(created, skipped, conflicted, cancelled int) {
	if m == nil {
		return
	}
	m.occurrences.WithLabelValues("created").Add(float64(created))
	m.occurrences.WithLabelValues("skipped").Add(float64(skipped))
	m.occurrences.WithLabelValues("conflicted").Add(float64(conflicted))
	m.occurrences.WithLabelValues("cancelled").Add(float64(cancelled))
}

// ObserveSweepJob records the outcome of one background sweep job.
func (m *MetricsService) ObserveSweepJob(outcome string) {
	if m == nil {
		return
	}
	m.sweepJobs.WithLabelValues(outcome).Inc()
}
