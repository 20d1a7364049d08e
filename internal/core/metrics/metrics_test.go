package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBusMetricsObservations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBusMetrics(reg)

	m.ObserveReceived("q", 3)
	m.ObserveDispatch("example.Widget", "success")
	m.ObserveHandlerLatency("widget-handler", "example.Widget", 10*time.Millisecond)
	m.ObserveRetry("q")
	m.ObserveDeadLetter("q", "retries_exhausted")
	m.ObserveParseFailure("q")

	if got := testutil.ToFloat64(m.received.WithLabelValues("q")); got != 3 {
		t.Fatalf("expected received=3, got %v", got)
	}
	if got := testutil.ToFloat64(m.dispatched.WithLabelValues("example.Widget", "success")); got != 1 {
		t.Fatalf("expected dispatched=1, got %v", got)
	}
	if got := testutil.ToFloat64(m.retries.WithLabelValues("q")); got != 1 {
		t.Fatalf("expected retries=1, got %v", got)
	}
	if got := testutil.ToFloat64(m.deadLettered.WithLabelValues("q", "retries_exhausted")); got != 1 {
		t.Fatalf("expected deadLettered=1, got %v", got)
	}
	if got := testutil.ToFloat64(m.parseFailures.WithLabelValues("q")); got != 1 {
		t.Fatalf("expected parseFailures=1, got %v", got)
	}
}
