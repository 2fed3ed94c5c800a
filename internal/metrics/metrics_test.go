package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("Second Register should be tolerated: %v", err)
	}
}

func TestTransitionsCounter(t *testing.T) {
	c := TransitionsTotal.WithLabelValues("change-map", "ok")
	before := testutil.ToFloat64(c)
	c.Inc()
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("Expected %v, got %v", before+1, got)
	}
}
