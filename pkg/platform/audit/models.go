// Package audit records who did what to which record in the application
// workflow. Entries are append-only.
package audit

import (
	"time"

	id "govportal/pkg/domain"
)

// EventCategory drives retention. Compliance entries record decisions about a
// citizen; operations entries record routine staff activity.
type EventCategory string

const (
	CategoryCompliance EventCategory = "compliance"
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from services after a state change commits.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// UserID is the holder the record belongs to, when known.
	UserID id.UserID
	// Subject is the affected record id (application, upload, queue item).
	Subject string
	Action  string
	Reason  string
	// ActorID is the staff member or holder who triggered the change.
	ActorID   string
	RequestID string
	ClientIP  string
}

type AuditEvent string

const (
	EventApplicationSubmitted AuditEvent = "application_submitted"
	EventApplicationApproved  AuditEvent = "application_approved"
	EventApplicationRejected  AuditEvent = "application_rejected"
	EventUploadVerified       AuditEvent = "upload_verified"
	EventUploadRejected       AuditEvent = "upload_rejected"
	EventDocumentIssued       AuditEvent = "document_issued"
	EventDocumentSuperseded   AuditEvent = "document_superseded"
	EventPrintCompleted       AuditEvent = "print_completed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventApplicationApproved: CategoryCompliance,
	EventApplicationRejected: CategoryCompliance,
	EventDocumentIssued:      CategoryCompliance,
	EventDocumentSuperseded:  CategoryCompliance,
	EventUploadVerified:      CategoryCompliance,
	EventUploadRejected:      CategoryCompliance,

	EventApplicationSubmitted: CategoryOperations,
	EventPrintCompleted:       CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
