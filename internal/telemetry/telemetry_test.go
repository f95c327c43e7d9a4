package telemetry

import (
	"testing"
	"time"
)

func TestMetricsDeterministicPerServer(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := Metrics("H1-P2-A3-R4-U5", now)
	b := Metrics("H1-P2-A3-R4-U5", now)
	for k, v := range a.Metrics {
		if b.Metrics[k] != v {
			t.Fatalf("metric %s not deterministic: %v vs %v", k, v, b.Metrics[k])
		}
	}
	other := Metrics("H9-P9-A9-R9-U9", now)
	same := true
	for k, v := range a.Metrics {
		if other.Metrics[k] != v {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different servers produced identical metrics")
	}
}

func TestMetricsRanges(t *testing.T) {
	m := Metrics("srv-1", time.Now())
	cpu := m.Metrics["cpu_usage_percent"]
	if cpu < 10 || cpu > 95 {
		t.Fatalf("cpu out of range: %v", cpu)
	}
	switch m.Status.Health {
	case "healthy", "warning", "critical":
	default:
		t.Fatalf("unexpected health: %s", m.Status.Health)
	}
}

func TestLogsNewestFirst(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := Logs("srv-1", 8, now)
	if len(l.Logs) != 8 {
		t.Fatalf("log count: got %d", len(l.Logs))
	}
	for i := 1; i < len(l.Logs); i++ {
		if l.Logs[i-1].Timestamp < l.Logs[i].Timestamp {
			t.Fatalf("logs not sorted newest first at %d", i)
		}
	}
}
