package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the archive API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	downloadsTotal  *prometheus.CounterVec
	downloadBytes   prometheus.Counter
	packageDuration prometheus.Histogram
	sessionsActive  prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
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

	downloadsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_downloads_total",
		Help: "Total packaged downloads by delivery path",
	}, []string{"path"})

	downloadBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "content_download_bytes_total",
		Help: "Total bytes delivered in packaged downloads",
	})

	packageDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "package_assembly_seconds",
		Help:    "Time spent assembling download packages",
		Buckets: prometheus.DefBuckets,
	})

	sessionsActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "explorer_sessions_active",
		Help: "Number of live browsing sessions",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, downloadsTotal, downloadBytes, packageDuration, sessionsActive, cacheHits, cacheMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		downloadsTotal:  downloadsTotal,
		downloadBytes:   downloadBytes,
		packageDuration: packageDuration,
		sessionsActive:  sessionsActive,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
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

// ObserveDownload records one delivered package.
func (m *MetricsService) ObserveDownload(deliveryPath string, bytes int64, assembly time.Duration) {
	if m == nil {
		return
	}
	m.downloadsTotal.WithLabelValues(deliveryPath).Inc()
	m.downloadBytes.Add(float64(bytes))
	m.packageDuration.Observe(assembly.Seconds())
}

// SessionOpened bumps the live session gauge.
func (m *MetricsService) SessionOpened() {
	if m != nil {
		m.sessionsActive.Inc()
	}
}

// SessionClosed decrements the live session gauge.
func (m *MetricsService) SessionClosed() {
	if m != nil {
		m.sessionsActive.Dec()
	}
}

// RecordCacheOperation records cache hit/miss counters.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
