package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordAnalysis("heuristic", "ok")
	r.RecordAnalysis("heuristic", "ok")
	r.RecordError("data_unavailable")
	r.RecordLastPrice("AAPL", 191.5)
	r.RecordLatency("analyze", 0.12)

	if got := testutil.ToFloat64(r.analyses.WithLabelValues("heuristic", "ok")); got != 2 {
		t.Fatalf("expected 2 analyses, got %v", got)
	}
	if got := testutil.ToFloat64(r.errors.WithLabelValues("data_unavailable")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
	if got := testutil.ToFloat64(r.lastPrice.WithLabelValues("AAPL")); got != 191.5 {
		t.Fatalf("unexpected last price %v", got)
	}
	if n := testutil.CollectAndCount(r.latency); n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}
}
