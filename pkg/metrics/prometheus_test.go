package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetricsRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("enroute", reg)

	m.PollTicks.WithLabelValues("KSFO", "ok").Inc()
	m.StoreSaves.WithLabelValues("error").Add(2)

	if got := testutil.ToFloat64(m.PollTicks.WithLabelValues("KSFO", "ok")); got != 1 {
		t.Fatalf("expected 1 poll tick, got %v", got)
	}
	if got := testutil.ToFloat64(m.StoreSaves.WithLabelValues("error")); got != 2 {
		t.Fatalf("expected 2 failed saves, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
}

func TestNewTestMetricsCanBeBuiltTwice(t *testing.T) {
	NewTestMetrics()
	NewTestMetrics()
}
