package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the workflow-wide Prometheus collectors.
type Metrics struct {
	ApplicationsSubmitted prometheus.Counter
	ApplicationDecisions  *prometheus.CounterVec
	ApprovalStepFailures  *prometheus.CounterVec
	DocumentsIssued       *prometheus.CounterVec
	UploadDecisions       *prometheus.CounterVec
	PrintTransitions      *prometheus.CounterVec
	NotificationFailures  prometheus.Counter
	ChangeEventsPublished *prometheus.CounterVec
}

// New creates and registers all collectors on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ApplicationsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "govportal_applications_submitted_total",
			Help: "Applications accepted for review",
		}),
		ApplicationDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govportal_application_decisions_total",
			Help: "Approve and reject transitions by outcome",
		}, []string{"decision"}),
		ApprovalStepFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govportal_approval_step_failures_total",
			Help: "Post-approval side effects that failed and need manual remediation",
		}, []string{"step"}),
		DocumentsIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govportal_documents_issued_total",
			Help: "Documents issued by type",
		}, []string{"document_type"}),
		UploadDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govportal_upload_decisions_total",
			Help: "Upload verify and reject decisions",
		}, []string{"status"}),
		PrintTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govportal_print_transitions_total",
			Help: "Print queue mark-printed attempts by outcome",
		}, []string{"outcome"}),
		NotificationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "govportal_notification_failures_total",
			Help: "Notifications that could not be stored",
		}),
		ChangeEventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govportal_change_events_published_total",
			Help: "Change events fanned out by table",
		}, []string{"table"}),
	}
}

func (m *Metrics) IncApplicationsSubmitted() {
	if m != nil {
		m.ApplicationsSubmitted.Inc()
	}
}

func (m *Metrics) IncDecision(decision string) {
	if m != nil {
		m.ApplicationDecisions.WithLabelValues(decision).Inc()
	}
}

func (m *Metrics) IncApprovalStepFailure(step string) {
	if m != nil {
		m.ApprovalStepFailures.WithLabelValues(step).Inc()
	}
}

func (m *Metrics) IncDocumentIssued(documentType string) {
	if m != nil {
		m.DocumentsIssued.WithLabelValues(documentType).Inc()
	}
}

func (m *Metrics) IncUploadDecision(status string) {
	if m != nil {
		m.UploadDecisions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncPrintTransition(outcome string) {
	if m != nil {
		m.PrintTransitions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncNotificationFailure() {
	if m != nil {
		m.NotificationFailures.Inc()
	}
}

func (m *Metrics) IncChangeEvent(table string) {
	if m != nil {
		m.ChangeEventsPublished.WithLabelValues(table).Inc()
	}
}
