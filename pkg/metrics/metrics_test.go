package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	m := &dto.Metric{}
	if err := cv.WithLabelValues(labels...).Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func getHistogramCount(hv *prometheus.HistogramVec, labels ...string) uint64 {
	m := &dto.Metric{}
	if c, ok := hv.WithLabelValues(labels...).(prometheus.Metric); ok {
		if err := c.Write(m); err != nil {
			return 0
		}
		return m.GetHistogram().GetSampleCount()
	}
	return 0
}

func TestRecordDispatch(t *testing.T) {
	before := getCounterValue(CommandsTotal, "metricsTestCommand", OutcomeOK)
	beforeObs := getHistogramCount(CommandDurationSeconds, "metricsTestCommand")

	RecordDispatch("metricsTestCommand", OutcomeOK, 3*time.Millisecond)

	if got := getCounterValue(CommandsTotal, "metricsTestCommand", OutcomeOK); got != before+1 {
		t.Errorf("CommandsTotal = %f, want %f", got, before+1)
	}
	if got := getHistogramCount(CommandDurationSeconds, "metricsTestCommand"); got != beforeObs+1 {
		t.Errorf("CommandDurationSeconds samples = %d, want %d", got, beforeObs+1)
	}
}

func TestRecordDispatchNotFoundSkipsDuration(t *testing.T) {
	before := getHistogramCount(CommandDurationSeconds, "metricsMissing")

	RecordDispatch("metricsMissing", OutcomeNotFound, time.Millisecond)

	if got := getCounterValue(CommandsTotal, "metricsMissing", OutcomeNotFound); got < 1 {
		t.Errorf("CommandsTotal = %f, want >= 1", got)
	}
	if got := getHistogramCount(CommandDurationSeconds, "metricsMissing"); got != before {
		t.Errorf("Expected no duration sample for not-found dispatch, got %d", got)
	}
}

func TestRegistryGather(t *testing.T) {
	RecordRender("stack")
	RecordSegmentationCreated()

	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{"viewercore_renders_total", "viewercore_segmentations_created_total"} {
		if !names[want] {
			t.Errorf("Expected metric family %s in registry", want)
		}
	}
}
