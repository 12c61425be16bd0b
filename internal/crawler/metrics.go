package crawler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawl.
// All methods are safe on a nil receiver so metrics stay optional.
type Metrics struct {
	Registry            *prometheus.Registry
	PagesTotal          *prometheus.CounterVec
	FetchDuration       prometheus.Histogram
	LinksExtractedTotal prometheus.Counter
	FrontierQueueLength prometheus.Gauge
}

// NewMetrics constructs and registers all collectors on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_pages_total",
			Help: "Total pages processed, by result status.",
		},
		[]string{"status"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawl_fetch_duration_seconds",
			Help:    "HTTP fetch latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	links := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawl_links_extracted_total",
			Help: "Total accepted links extracted from pages.",
		},
	)
	queueLength := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crawl_frontier_queue_length",
			Help: "Current number of pending frontier items.",
		},
	)

	registry.MustRegister(pages, fetchDuration, links, queueLength)

	return &Metrics{
		Registry:            registry,
		PagesTotal:          pages,
		FetchDuration:       fetchDuration,
		LinksExtractedTotal: links,
		FrontierQueueLength: queueLength,
	}
}

// IncPage counts one processed page with the given status.
func (m *Metrics) IncPage(status string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(status).Inc()
}

// ObserveFetch records one fetch duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// AddLinks counts accepted extracted links.
func (m *Metrics) AddLinks(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LinksExtractedTotal.Add(float64(n))
}

// SetQueueLength records the current frontier queue length.
func (m *Metrics) SetQueueLength(n int) {
	if m == nil {
		return
	}
	m.FrontierQueueLength.Set(float64(n))
}
