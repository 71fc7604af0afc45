package retryxtest

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// CounterValue sums the values of every Counter child exposed by the
// collector. It also accepts Gauges.
func CounterValue(t *testing.T, collector prometheus.Collector) float64 {
	t.Helper()

	metricCh := make(chan prometheus.Metric, 64)
	collector.Collect(metricCh)
	close(metricCh)

	var total float64
	seen := false
	for metric := range metricCh {
		pb := &dto.Metric{}
		if err := metric.Write(pb); err != nil {
			t.Fatalf("failed to write metric: %v", err)
		}

		switch {
		case pb.Counter != nil:
			total += pb.Counter.GetValue()
		case pb.Gauge != nil:
			total += pb.Gauge.GetValue()
		default:
			t.Fatalf("metric is neither Counter nor Gauge")
		}
		seen = true
	}

	if !seen {
		t.Fatalf("no metrics collected")
	}
	return total
}

// AssertMetricValue asserts that the collector's summed value equals expected.
func AssertMetricValue(t *testing.T, collector prometheus.Collector, expected float64) {
	t.Helper()

	if actual := CounterValue(t, collector); actual != expected {
		t.Errorf("metric value mismatch: got %v, want %v", actual, expected)
	}
}

// GatherValue returns the summed value of the named metric family across
// all label combinations: counter and gauge values, or observation counts
// for histograms. It fails the test when the family is absent.
func GatherValue(t *testing.T, registry *prometheus.Registry, metricName string) float64 {
	t.Helper()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, family := range families {
		if family.GetName() != metricName {
			continue
		}

		var total float64
		for _, m := range family.GetMetric() {
			switch {
			case m.Counter != nil:
				total += m.Counter.GetValue()
			case m.Gauge != nil:
				total += m.Gauge.GetValue()
			case m.Histogram != nil:
				total += float64(m.Histogram.GetSampleCount())
			}
		}
		return total
	}

	t.Fatalf("metric %q not found in registry", metricName)
	return 0
}

// AssertMetricExists asserts that a metric with the given name is registered.
func AssertMetricExists(t *testing.T, registry *prometheus.Registry, metricName string) {
	t.Helper()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, family := range families {
		if family.GetName() == metricName {
			return
		}
	}

	t.Errorf("metric %q not found in registry", metricName)
}
