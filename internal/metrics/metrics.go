// Package metrics collects and exposes Prometheus metrics for the session service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Remote call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeOffline = "offline"
	OutcomeFailure = "failure"
)

// Recorder is what the application layer reports to.
type Recorder interface {
	RecordCall(op, outcome string)
	RecordIdentityChange(authenticated bool)
	SetUnread(n int)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	calls          *prometheus.CounterVec
	identityChange *prometheus.CounterVec
	unread         prometheus.Gauge
}

// NewCollector creates a Collector and registers it on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rider_remote_calls_total",
			Help: "Remote calls made through the offline-aware wrapper, by operation and outcome.",
		}, []string{"op", "outcome"}),
		identityChange: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rider_identity_changes_total",
			Help: "Identity-change emissions handled, by resulting state.",
		}, []string{"state"}),
		unread: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rider_notifications_unread",
			Help: "Unread notices in the notification queue.",
		}),
	}
	reg.MustRegister(c.calls, c.identityChange, c.unread)
	return c
}

func (c *Collector) RecordCall(op, outcome string) {
	c.calls.WithLabelValues(op, outcome).Inc()
}

func (c *Collector) RecordIdentityChange(authenticated bool) {
	state := "unauthenticated"
	if authenticated {
		state = "authenticated"
	}
	c.identityChange.WithLabelValues(state).Inc()
}

func (c *Collector) SetUnread(n int) {
	c.unread.Set(float64(n))
}

// Nop discards everything. Used where metrics are not wired.
type Nop struct{}

func (Nop) RecordCall(string, string) {}
func (Nop) RecordIdentityChange(bool) {}
func (Nop) SetUnread(int) {}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
