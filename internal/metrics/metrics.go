package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "solar_follower"

// Metrics groups the Prometheus collectors of the backend.
// All methods are safe on a nil receiver so metrics stay optional.
type Metrics struct {
	registry *prometheus.Registry

	telemetryIngested     prometheus.Counter
	telemetryStored       prometheus.Gauge
	validationFailures    *prometheus.CounterVec
	autoReverts           prometheus.Counter
	calibrationsDelivered prometheus.Counter
	heartbeats            prometheus.Counter
	sinkFailures          *prometheus.CounterVec
	sinkDropped           prometheus.Counter
}

// New builds the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		telemetryIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_samples_total",
			Help:      "Telemetry samples accepted from the device.",
		}),
		telemetryStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "telemetry_samples_stored",
			Help:      "Samples currently held in the telemetry log.",
		}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Requests rejected with a validation error.",
		}, []string{"endpoint"}),
		autoReverts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "liveness_reverts_total",
			Help:      "Override modes reverted to automatic after a missed heartbeat.",
		}),
		calibrationsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calibrations_delivered_total",
			Help:      "Calibration requests handed to the device.",
		}),
		heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeats_total",
			Help:      "Controller heartbeats received.",
		}),
		sinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_failures_total",
			Help:      "Telemetry forwards that failed, per sink.",
		}, []string{"sink"}),
		sinkDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_dropped_total",
			Help:      "Samples not forwarded to the sinks because the forward queue was full.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.telemetryIngested,
		m.telemetryStored,
		m.validationFailures,
		m.autoReverts,
		m.calibrationsDelivered,
		m.heartbeats,
		m.sinkFailures,
		m.sinkDropped,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) TelemetryIngested(stored int) {
	if m == nil {
		return
	}
	m.telemetryIngested.Inc()
	m.telemetryStored.Set(float64(stored))
}

func (m *Metrics) ValidationFailed(endpoint string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) AutoReverted() {
	if m == nil {
		return
	}
	m.autoReverts.Inc()
}

func (m *Metrics) CalibrationDelivered() {
	if m == nil {
		return
	}
	m.calibrationsDelivered.Inc()
}

func (m *Metrics) Heartbeat() {
	if m == nil {
		return
	}
	m.heartbeats.Inc()
}

func (m *Metrics) SinkFailed(sink string) {
	if m == nil {
		return
	}
	m.sinkFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) SinkDropped() {
	if m == nil {
		return
	}
	m.sinkDropped.Inc()
}
