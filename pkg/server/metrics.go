package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the server collectors. Each Server owns its own registry so
// several can coexist in one process.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	citationsParsed *prometheus.CounterVec
	storeErrors     prometheus.Counter
}

func newMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lexref",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lexref",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		citationsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lexref",
			Name:      "citations_parsed_total",
			Help:      "Citations parsed, by the grammar that matched or \"invalid\".",
		}, []string{"grammar"}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lexref",
			Name:      "store_errors_total",
			Help:      "Document store failures surfaced to clients.",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.citationsParsed,
		m.storeErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry backing /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeCitation(grammar string, valid bool) {
	if !valid || grammar == "" {
		grammar = "invalid"
	}
	m.citationsParsed.WithLabelValues(grammar).Inc()
}
