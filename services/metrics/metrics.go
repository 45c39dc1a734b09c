package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the monitor.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	Registry           *prometheus.Registry
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    prometheus.Histogram
	RetriesTotal       prometheus.Counter
	FetchErrorsTotal   *prometheus.CounterVec
	ProductsChecked    prometheus.Counter
	ProductsFound      prometheus.Counter
	CategoryErrors     prometheus.Counter
	CyclesTotal        prometheus.Counter
	CycleDuration      prometheus.Histogram
	SeenKeys           prometheus.Gauge
	NotificationsTotal *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricewatch_requests_total",
			Help: "HTTP requests issued, by outcome.",
		}, []string{"outcome"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricewatch_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}),
		RetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricewatch_retries_total",
			Help: "Retry attempts scheduled after a failed request.",
		}),
		FetchErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricewatch_fetch_errors_total",
			Help: "URLs that could not be fetched, by error type.",
		}, []string{"error_type"}),
		ProductsChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricewatch_products_checked_total",
			Help: "Products extracted from listing pages.",
		}),
		ProductsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricewatch_products_found_total",
			Help: "New products at or below the price threshold.",
		}),
		CategoryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricewatch_category_errors_total",
			Help: "Category scans that reported an error.",
		}),
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricewatch_cycles_total",
			Help: "Completed scan cycles.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricewatch_cycle_duration_seconds",
			Help:    "Wall time of a full scan cycle.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		SeenKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pricewatch_seen_keys",
			Help: "Keys held by the seen store.",
		}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricewatch_notifications_total",
			Help: "Notifications sent, by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(
		m.RequestsTotal, m.RequestDuration, m.RetriesTotal, m.FetchErrorsTotal,
		m.ProductsChecked, m.ProductsFound, m.CategoryErrors,
		m.CyclesTotal, m.CycleDuration, m.SeenKeys, m.NotificationsTotal,
	)
	return m
}

// IncRequest increments the requests counter for an outcome label.
func (m *Metrics) IncRequest(outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRequest records an HTTP request duration.
func (m *Metrics) ObserveRequest(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncFetchError increments the fetch error counter for a type label.
func (m *Metrics) IncFetchError(errorType string) {
	if m == nil {
		return
	}
	m.FetchErrorsTotal.WithLabelValues(errorType).Inc()
}

// AddChecked adds to the checked products counter.
func (m *Metrics) AddChecked(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ProductsChecked.Add(float64(n))
}

// IncFound increments the found products counter.
func (m *Metrics) IncFound() {
	if m == nil {
		return
	}
	m.ProductsFound.Inc()
}

// IncCategoryError increments the category error counter.
func (m *Metrics) IncCategoryError() {
	if m == nil {
		return
	}
	m.CategoryErrors.Inc()
}

// ObserveCycle records a completed cycle.
func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.Inc()
	m.CycleDuration.Observe(d.Seconds())
}

// SetSeenKeys records the size of the seen store.
func (m *Metrics) SetSeenKeys(n int) {
	if m == nil {
		return
	}
	m.SeenKeys.Set(float64(n))
}

// IncNotification increments the notifications counter for a result label.
func (m *Metrics) IncNotification(result string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(result).Inc()
}
