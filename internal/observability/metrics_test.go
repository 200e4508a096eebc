package observability

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordVerification(false)
	m.RecordVerification(true)
	m.RecordVerification(true)
	m.RecordAttempt("sms", false)
	m.RecordAttempt("link", true)
	m.SetScheduledJobs(4)
	m.RecordRequest("/api/verify", "POST", 200, 10*time.Millisecond)

	if got := testutil.ToFloat64(m.verifications.WithLabelValues("flagged")); got != 2 {
		t.Fatalf("flagged verifications = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.attempts.WithLabelValues("link", "success")); got != 1 {
		t.Fatalf("link successes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.scheduledJobs); got != 4 {
		t.Fatalf("scheduled jobs = %v, want 4", got)
	}

	expected := `
# HELP notification_attempts_total Total number of channel delivery attempts
# TYPE notification_attempts_total counter
notification_attempts_total{channel="link",result="success"} 1
notification_attempts_total{channel="sms",result="failure"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "notification_attempts_total"); err != nil {
		t.Fatal(err)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordVerification(true)
	m.RecordAttempt("sms", true)
	m.RecordBulkItem("sent")
	m.SetScheduledJobs(1)
	m.RecordError("/", "GET", "X")
}
