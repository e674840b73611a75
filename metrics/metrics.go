// Package metrics exports circuit breaker state and sliding-window
// counts as Prometheus metrics through a reusable prometheus.Collector.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/armory/internal/breaker"
)

// Breaker is the subset of *breaker.CircuitBreaker this package needs;
// an interface so tests can supply a fake without building a real one.
type Breaker interface {
	Name() string
	Snapshot() breaker.BreakerSnapshot
}

// Registrar is a prometheus.Collector over a named set of breakers. Named
// breakers can be added at any time via Add; Collect always reflects the
// current membership.
type Registrar struct {
	mu       sync.RWMutex
	breakers map[string]Breaker

	stateDesc   *prometheus.Desc
	requestDesc *prometheus.Desc
	failureDesc *prometheus.Desc
	rateDesc    *prometheus.Desc
}

// NewRegistrar creates an empty Registrar. Register it with a
// prometheus.Registerer (prometheus.MustRegister(registrar)) once.
func NewRegistrar() *Registrar {
	return &Registrar{
		breakers: make(map[string]Breaker),
		stateDesc: prometheus.NewDesc(
			"armory_circuit_breaker_state",
			"Current circuit breaker state (0=closed, 1=open, 2=half-open)",
			[]string{"name"}, nil,
		),
		requestDesc: prometheus.NewDesc(
			"armory_circuit_breaker_window_requests",
			"Requests counted in the current sliding window (0 outside CLOSED)",
			[]string{"name"}, nil,
		),
		failureDesc: prometheus.NewDesc(
			"armory_circuit_breaker_window_failures",
			"Failures counted in the current sliding window (0 outside CLOSED)",
			[]string{"name"}, nil,
		),
		rateDesc: prometheus.NewDesc(
			"armory_circuit_breaker_window_failure_rate",
			"Failure rate over the current sliding window",
			[]string{"name"}, nil,
		),
	}
}

// Add registers b under name for export. Safe to call before or after
// the Registrar itself has been handed to a prometheus.Registerer.
func (r *Registrar) Add(name string, b Breaker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakers[name] = b
}

// Describe implements prometheus.Collector.
func (r *Registrar) Describe(ch chan<- *prometheus.Desc) {
	ch <- r.stateDesc
	ch <- r.requestDesc
	ch <- r.failureDesc
	ch <- r.rateDesc
}

// Collect implements prometheus.Collector.
func (r *Registrar) Collect(ch chan<- prometheus.Metric) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, b := range r.breakers {
		snap := b.Snapshot()

		ch <- prometheus.MustNewConstMetric(r.stateDesc, prometheus.GaugeValue, float64(snap.State), name)
		ch <- prometheus.MustNewConstMetric(r.requestDesc, prometheus.GaugeValue, float64(snap.Count.Total()), name)
		ch <- prometheus.MustNewConstMetric(r.failureDesc, prometheus.GaugeValue, float64(snap.Count.Failure), name)
		ch <- prometheus.MustNewConstMetric(r.rateDesc, prometheus.GaugeValue, snap.Count.FailureRate(), name)
	}
}
