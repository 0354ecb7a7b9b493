package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewTimerStartsImmediately(t *testing.T) {
	timer := NewTimer()
	if timer == nil {
		t.Fatal("NewTimer() returned nil")
	}
	if timer.start.IsZero() {
		t.Error("expected NewTimer to record a non-zero start time")
	}
}

func TestObserveDurationVecRecordsIntoHistogram(t *testing.T) {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "test_elfiee_duration_seconds",
		Help:    "test histogram",
		Buckets: prometheus.DefBuckets,
	}, []string{"cap_id"})

	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	timer.ObserveDurationVec(vec, "core.create")

	if count := testutil.CollectAndCount(vec); count != 1 {
		t.Fatalf("expected exactly one observed series, got %d", count)
	}
}

func TestHandlerIsNonNil(t *testing.T) {
	if Handler() == nil {
		t.Fatal("expected a non-nil metrics HTTP handler")
	}
}
