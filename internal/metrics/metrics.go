// Package metrics implements the Prometheus instrumentation of the open-handle
// registry and the HTTP server exposing it.
package metrics

import (
	"github.com/desertwitch/volguard/internal/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// registryMetrics is the Prometheus implementation of [registry.Metrics].
type registryMetrics struct {
	openHandles prometheus.Gauge
	opens       *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
	lockedDirs  prometheus.Gauge
	locks       prometheus.Counter
	evictions   prometheus.Counter
}

// NewRegistryMetrics returns a [registry.Metrics] registering its collectors
// with reg. A nil reg returns nil, which the [registry.Registry] accepts as
// metrics being disabled.
func NewRegistryMetrics(reg prometheus.Registerer) registry.Metrics {
	if reg == nil {
		return nil
	}

	return &registryMetrics{
		openHandles: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "volguard_open_handles",
				Help: "Number of currently registered open handles",
			},
		),
		opens: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "volguard_opens_total",
				Help: "Total number of granted opens by access and share mode",
			},
			[]string{"access", "share"},
		),
		conflicts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "volguard_conflicts_total",
				Help: "Total number of refused opens and locks by reason",
			},
			[]string{"reason"}, // "share", "locked", "in_use", "already_locked"
		),
		lockedDirs: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "volguard_locked_directories",
				Help: "Number of currently locked directories",
			},
		),
		locks: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "volguard_directory_locks_total",
				Help: "Total number of granted directory locks",
			},
		),
		evictions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "volguard_evicted_handles_total",
				Help: "Total number of handles evicted with their volume",
			},
		),
	}
}

func (m *registryMetrics) ObserveRegister(access registry.Access, share registry.Share) {
	m.openHandles.Inc()
	m.opens.WithLabelValues(access.String(), share.String()).Inc()
}

func (m *registryMetrics) ObserveDeregister(count int) {
	m.openHandles.Sub(float64(count))
}

func (m *registryMetrics) ObserveConflict(reason string) {
	m.conflicts.WithLabelValues(reason).Inc()
}

func (m *registryMetrics) ObserveLock() {
	m.lockedDirs.Inc()
	m.locks.Inc()
}

func (m *registryMetrics) ObserveUnlock() {
	m.lockedDirs.Dec()
}

func (m *registryMetrics) ObserveEviction(count int) {
	m.openHandles.Sub(float64(count))
	m.evictions.Add(float64(count))
}
