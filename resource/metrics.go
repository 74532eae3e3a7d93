// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "kore_resource"

// Metrics holds the collectors that managers report load activity to.
// One Metrics is shared by all managers, the kind label tells them apart.
type Metrics struct {
	requests  *prometheus.CounterVec
	started   *prometheus.CounterVec
	completed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	inFlight  *prometheus.GaugeVec
	duration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	labels := []string{"kind"}
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Number of resource requests, including cache hits.",
		}, labels),
		started: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "loads_started_total",
			Help:      "Number of background loads started.",
		}, labels),
		completed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "loads_completed_total",
			Help:      "Number of loads that produced a value.",
		}, labels),
		failed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "loads_failed_total",
			Help:      "Number of loads whose construction failed.",
		}, labels),
		inFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "loads_in_flight",
			Help:      "Number of background loads not finished yet.",
		}, labels),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "load_duration_seconds",
			Help:      "Time spent constructing and initializing resources.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, labels),
	}
}

func (m *Metrics) request(kind string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind).Inc()
}

func (m *Metrics) start(kind string) {
	if m == nil {
		return
	}
	m.started.WithLabelValues(kind).Inc()
	m.inFlight.WithLabelValues(kind).Inc()
}

func (m *Metrics) finish(kind string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.inFlight.WithLabelValues(kind).Dec()
	m.duration.WithLabelValues(kind).Observe(took.Seconds())
	if err != nil {
		m.failed.WithLabelValues(kind).Inc()
	} else {
		m.completed.WithLabelValues(kind).Inc()
	}
}
