// Package metrics collects and exposes Prometheus counters for the
// authentication flow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts authentication events.
type Collector struct {
	registry *prometheus.Registry

	logins        *prometheus.CounterVec
	registrations prometheus.Counter
}

// NewCollector builds a collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inboxhub_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inboxhub_registrations_total",
			Help: "New user rows created on first login.",
		}),
	}

	reg.MustRegister(c.logins, c.registrations)
	return c
}

// RecordLogin counts one login attempt. result is "success" or a short
// failure code (the same codes the callback puts in its redirect).
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordRegistration counts a first login that created a user row.
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// Handler serves the /metrics endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
