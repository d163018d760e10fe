package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestReservationMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewReservationMetrics(reg)

	metrics.IncUnlock("premium")
	metrics.IncUnlock("premium")
	metrics.IncRefund("premium")
	metrics.IncOversell()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "reservation_unlocks_granted", "tier", "premium"); err != nil {
		t.Fatalf("fetch unlocks: %v", err)
	} else if got != 2 {
		t.Fatalf("expected unlocks=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "reservation_refunds", "tier", "premium"); err != nil {
		t.Fatalf("fetch refunds: %v", err)
	} else if got != 1 {
		t.Fatalf("expected refunds=1, got %f", got)
	}

	mf := findMetricFamily(mfs, "reservation_oversell_alerts")
	if mf == nil || len(mf.GetMetric()) == 0 {
		t.Fatal("oversell counter not exported")
	}
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected oversells=1, got %f", got)
	}
}

func TestReservationMetricsNilSafe(t *testing.T) {
	var metrics *ReservationMetrics
	metrics.IncUnlock("standard")
	metrics.IncRefund("standard")
	metrics.IncOversell()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
