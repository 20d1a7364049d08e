// Package metrics exposes Prometheus counters and histograms for pump
// throughput, retry counts, and dead-letter volume, namespaced the way the
// rest of the ecosystem registers its collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "junglebus"

// BusMetrics collects pump and dispatch outcomes for a running bus.
type BusMetrics struct {
	received           *prometheus.CounterVec
	dispatched         *prometheus.CounterVec
	handlerLatency     *prometheus.HistogramVec
	retries            *prometheus.CounterVec
	deadLettered       *prometheus.CounterVec
	parseFailures      *prometheus.CounterVec
	handlerInvocations *prometheus.CounterVec
	faultInvocations   *prometheus.CounterVec
}

// NewBusMetrics builds and registers a BusMetrics against registerer,
// falling back to the default Prometheus registry when nil.
func NewBusMetrics(registerer prometheus.Registerer) *BusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &BusMetrics{
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pump",
			Name:      "messages_received_total",
			Help:      "Messages received from the input queue.",
		}, []string{"queue"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "messages_total",
			Help:      "Messages dispatched, labeled by outcome.",
		}, []string{"message_type", "outcome"}),
		handlerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "handler_duration_seconds",
			Help:      "Per-handler invocation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler", "message_type"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pump",
			Name:      "retries_total",
			Help:      "Messages left undeleted for a retry.",
		}, []string{"queue"}),
		deadLettered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pump",
			Name:      "dead_lettered_total",
			Help:      "Messages that exhausted retries or failed to parse and were escalated to fault handlers.",
		}, []string{"queue", "reason"}),
		parseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "failures_total",
			Help:      "Envelope or payload decode failures.",
		}, []string{"queue"}),
		handlerInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "handler_invocations_total",
			Help:      "Per-handler invocations, labeled by outcome.",
		}, []string{"handler", "message_type", "outcome"}),
		faultInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "fault_handler_invocations_total",
			Help:      "Fault handler invocations, labeled by outcome.",
		}, []string{"handler", "outcome"}),
	}

	registerer.MustRegister(
		m.received, m.dispatched, m.handlerLatency, m.retries, m.deadLettered, m.parseFailures,
		m.handlerInvocations, m.faultInvocations,
	)
	return m
}

func (m *BusMetrics) ObserveReceived(queue string, n int) {
	m.received.WithLabelValues(queue).Add(float64(n))
}

func (m *BusMetrics) ObserveDispatch(messageType, outcome string) {
	m.dispatched.WithLabelValues(messageType, outcome).Inc()
}

func (m *BusMetrics) ObserveHandlerLatency(handler, messageType string, d time.Duration) {
	m.handlerLatency.WithLabelValues(handler, messageType).Observe(d.Seconds())
}

func (m *BusMetrics) ObserveRetry(queue string) {
	m.retries.WithLabelValues(queue).Inc()
}

func (m *BusMetrics) ObserveDeadLetter(queue, reason string) {
	m.deadLettered.WithLabelValues(queue, reason).Inc()
}

func (m *BusMetrics) ObserveParseFailure(queue string) {
	m.parseFailures.WithLabelValues(queue).Inc()
}

// DispatchObserver adapts a BusMetrics to dispatch.Observer by structural
// typing, so handler and fault-handler outcomes land in the same registry
// as the pump-level counters above without dispatch importing this package.
type DispatchObserver struct {
	metrics *BusMetrics
}

// NewDispatchObserver returns a dispatch.Observer backed by m.
func NewDispatchObserver(m *BusMetrics) *DispatchObserver {
	return &DispatchObserver{metrics: m}
}

// OnHandlerInvoked records one handler invocation, labeled success or
// failure by whether err is nil.
func (o *DispatchObserver) OnHandlerInvoked(handlerName, messageType string, err error) {
	o.metrics.handlerInvocations.WithLabelValues(handlerName, messageType, outcomeOf(err)).Inc()
}

// OnFaultHandlerInvoked records one fault handler invocation, labeled
// success or failure by whether err is nil.
func (o *DispatchObserver) OnFaultHandlerInvoked(handlerName string, err error) {
	o.metrics.faultInvocations.WithLabelValues(handlerName, outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
