// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "door_shop"

// Metrics owns a private registry so tests can create as many instances as they need.
// Every recording method is safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	salesTotal          *prometheus.CounterVec
	saleAmountTotal     *prometheus.CounterVec
	stockMovementsTotal *prometheus.CounterVec
	stockRejections     *prometheus.CounterVec
	summaryRecomputes   prometheus.Counter
}

// New creates the collectors and registers them, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	m.salesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sales_total",
		Help:      "Settled sales by payment method.",
	}, []string{"payment_method"})

	m.saleAmountTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sale_amount_total",
		Help:      "Sum of sale grand totals by payment method.",
	}, []string{"payment_method"})

	m.stockMovementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_movements_total",
		Help:      "Applied stock ledger movements by source.",
	}, []string{"source"})

	m.stockRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_rejections_total",
		Help:      "Operations refused for insufficient stock, by source.",
	}, []string{"source"})

	m.summaryRecomputes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "daily_summary_recomputes_total",
		Help:      "Daily summary recomputations.",
	})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.salesTotal,
		m.saleAmountTotal,
		m.stockMovementsTotal,
		m.stockRejections,
		m.summaryRecomputes,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordSale counts a committed sale. amount is the grand total as a float.
func (m *Metrics) RecordSale(paymentMethod string, amount float64) {
	if m == nil {
		return
	}
	m.salesTotal.WithLabelValues(paymentMethod).Inc()
	m.saleAmountTotal.WithLabelValues(paymentMethod).Add(amount)
}

func (m *Metrics) RecordStockMovement(source string) {
	if m == nil {
		return
	}
	m.stockMovementsTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordStockRejection(source string) {
	if m == nil {
		return
	}
	m.stockRejections.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordSummaryRecompute() {
	if m == nil {
		return
	}
	m.summaryRecomputes.Inc()
}
