package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the server's prometheus instruments on a private registry
// so multiple servers (tests) never collide on registration.
type metrics struct {
	registry *prometheus.Registry
	ingested prometheus.Counter
	rejected *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		ingested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snaptrack_events_ingested_total",
			Help: "Tracking events accepted and journaled.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snaptrack_events_rejected_total",
			Help: "Tracking events rejected, by reason.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(m.ingested, m.rejected)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
