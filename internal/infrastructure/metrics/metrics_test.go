package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.SchedulerRuns == nil || m.HTTPRequests == nil || m.ScheduleReconstructions == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.SchedulerRuns.WithLabelValues(RunCompleted).Inc()
	m.TransferFailures.WithLabelValues("insufficient_balance").Add(2)

	if got := testutil.ToFloat64(m.TransferFailures.WithLabelValues("insufficient_balance")); got != 2 {
		t.Fatalf("expected 2 failures, got %v", got)
	}

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	New(registry)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected duplicate registration to panic")
		}
	}()
	New(registry)
}
