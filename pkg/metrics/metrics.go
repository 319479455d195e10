package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. The Record helpers are safe to call
// on a nil *Metrics so the scheduler and one-shot commands can run without a
// registry.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Publishing pipeline metrics
	PostsPublished         *prometheus.CounterVec
	PublishFailures        *prometheus.CounterVec
	QuotaDenials           *prometheus.CounterVec
	ProviderCallDuration   *prometheus.HistogramVec
	SchedulerCycleDuration prometheus.Histogram
	TitlesGenerated        prometheus.Counter
	ExportsCreated         prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBConnections   prometheus.Gauge

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets, // 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Publishing pipeline metrics
		PostsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "posts_published_total",
				Help: "Total number of posts published to target sites",
			},
			[]string{"tier"}, // trial, hobbyist, professional
		),
		PublishFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "publish_failures_total",
				Help: "Total number of failed publish attempts",
			},
			[]string{"stage"}, // site, generation, publish
		),
		QuotaDenials: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quota_denials_total",
				Help: "Total number of publish attempts denied by quota",
			},
			[]string{"tier"},
		),
		ProviderCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "provider_call_duration_seconds",
				Help:    "External provider call duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"provider", "operation"}, // generator/content, generator/image, publisher/publish
		),
		SchedulerCycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_cycle_duration_seconds",
			Help:    "Duration of one due-campaign processing pass in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		TitlesGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "titles_generated_total",
			Help: "Total number of title suggestions generated",
		}),
		ExportsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "exports_created_total",
			Help: "Total number of publish-history exports created",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Database query duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"operation"}, // select, insert, update, delete
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		}),

		// Cache metrics
		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"}, // usage, stats
		),
		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}

	return m
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // Use route pattern, not actual path (e.g., /api/v1/campaigns/:id)

			// Measure request size
			if req.ContentLength > 0 {
				m.HTTPRequestSize.WithLabelValues(req.Method, path).Observe(float64(req.ContentLength))
			}

			// Call next handler
			err := next(c)

			// Record metrics
			status := c.Response().Status
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// RecordPostPublished increments the published posts counter for a tier
func (m *Metrics) RecordPostPublished(tier string) {
	if m == nil {
		return
	}
	m.PostsPublished.WithLabelValues(tier).Inc()
}

// RecordPublishFailure increments the failure counter for a pipeline stage
func (m *Metrics) RecordPublishFailure(stage string) {
	if m == nil {
		return
	}
	m.PublishFailures.WithLabelValues(stage).Inc()
}

// RecordQuotaDenial increments the quota denial counter for a tier
func (m *Metrics) RecordQuotaDenial(tier string) {
	if m == nil {
		return
	}
	m.QuotaDenials.WithLabelValues(tier).Inc()
}

// RecordProviderCall records the duration of one external provider call
func (m *Metrics) RecordProviderCall(provider, operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ProviderCallDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordSchedulerCycle records the duration of one due-campaign pass
func (m *Metrics) RecordSchedulerCycle(duration time.Duration) {
	if m == nil {
		return
	}
	m.SchedulerCycleDuration.Observe(duration.Seconds())
}

// RecordTitlesGenerated adds to the generated titles counter
func (m *Metrics) RecordTitlesGenerated(count int) {
	if m == nil {
		return
	}
	m.TitlesGenerated.Add(float64(count))
}

// RecordExportCreated increments exports created counter
func (m *Metrics) RecordExportCreated() {
	if m == nil {
		return
	}
	m.ExportsCreated.Inc()
}

// RecordDBQuery records database query duration
func (m *Metrics) RecordDBQuery(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnections updates active database connections gauge
func (m *Metrics) UpdateDBConnections(count float64) {
	if m == nil {
		return
	}
	m.DBConnections.Set(count)
}

// RecordCacheHit increments cache hits counter
func (m *Metrics) RecordCacheHit(cacheType string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss increments cache misses counter
func (m *Metrics) RecordCacheMiss(cacheType string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(cacheType).Inc()
}
