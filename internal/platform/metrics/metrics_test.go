package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncDecision("approved")
		m.IncApprovalStepFailure("print_enqueue")
		m.IncNotificationFailure()
	})
}

func TestMetrics_Counts(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncDecision("approved")
	m.IncDecision("approved")
	m.IncApprovalStepFailure("document_issue")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ApplicationDecisions.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ApprovalStepFailures.WithLabelValues("document_issue")))
}
