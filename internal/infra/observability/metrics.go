package observability

import (
	"time"

	"github.com/fisapp/receipt-bff-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the BFF.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	uploadsTotal    *prometheus.CounterVec
	imageBytes      *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "receipt_bff_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipt_bff_external_errors_total",
				Help: "Total errors from the upstream backend by call.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipt_bff_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipt_bff_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		uploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipt_bff_uploads_total",
				Help: "Image uploads by kind (receipt, z_report) and status.",
			},
			[]string{"kind", "status"},
		),
		imageBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipt_bff_image_bytes_total",
				Help: "Image bytes before (input) and after (output) pre-processing.",
			},
			[]string{"direction"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipt_bff_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrUpload counts one upload attempt by kind and outcome.
func (m *Metrics) IncrUpload(kind, status string) {
	m.uploadsTotal.WithLabelValues(kind, status).Inc()
}

// RecordImageBytes records pre- and post-processing image sizes.
func (m *Metrics) RecordImageBytes(input, output int) {
	m.imageBytes.WithLabelValues("input").Add(float64(input))
	m.imageBytes.WithLabelValues("output").Add(float64(output))
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetUploadSnapshot returns a snapshot of upload-related metrics suitable
// for the GET /api/metrics/uploads endpoint.
func (m *Metrics) GetUploadSnapshot() *domain.UploadMetrics {
	// Gather current values from Prometheus counters.
	// Note: Prometheus counters expose cumulative values.
	receiptOK := getCounterValue(m.uploadsTotal, "receipt", "success")
	receiptErr := getCounterValue(m.uploadsTotal, "receipt", "error")
	zOK := getCounterValue(m.uploadsTotal, "z_report", "success")
	zErr := getCounterValue(m.uploadsTotal, "z_report", "error")
	cacheHits := getCounterValue(m.cacheHits, "session")
	cacheMisses := getCounterValue(m.cacheMisses, "session")
	inBytes := getCounterValue(m.imageBytes, "input")
	outBytes := getCounterValue(m.imageBytes, "output")

	total := receiptOK + receiptErr + zOK + zErr
	errorRate := float64(0)
	if total > 0 {
		errorRate = (receiptErr + zErr) / total
	}
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}
	compression := float64(0)
	if inBytes > 0 {
		compression = outBytes / inBytes
	}

	return &domain.UploadMetrics{
		TotalUploads:     int64(total),
		ErrorRate:        errorRate,
		CacheHitRate:     cacheHitRate,
		CompressionRatio: compression,
		Period:           "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
