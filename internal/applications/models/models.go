package models

import (
	"strings"
	"time"

	docModels "govportal/internal/documents/models"
	uploadModels "govportal/internal/uploads/models"
	validationModels "govportal/internal/validation/models"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// IsDecision reports whether s is a terminal review outcome.
func (s Status) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// Application is a citizen's request for one catalog service. Status moves
// out of Pending exactly once.
type Application struct {
	ID                id.ApplicationID `json:"id"`
	HolderID          id.UserID        `json:"holder_id"`
	ServiceID         id.ServiceID     `json:"service_id"`
	Status            Status           `json:"status"`
	SubmittedAt       time.Time        `json:"submitted_at"`
	ReviewedAt        *time.Time       `json:"reviewed_at,omitempty"`
	ReviewerID        id.UserID        `json:"reviewer_id,omitempty"`
	RejectionReason   string           `json:"rejection_reason,omitempty"`
	IsReplacement     bool             `json:"is_replacement"`
	ReplacementReason string           `json:"replacement_reason,omitempty"`
	OfficeLocation    string           `json:"office_location"`
	// RequiredDocuments is the service manifest as it stood at submission.
	RequiredDocuments []string `json:"required_documents"`
}

// Review is the single transition out of Pending.
type Review struct {
	Status     Status
	ReviewerID id.UserID
	Reason     string
	At         time.Time
}

// SubmitRequest is a citizen submission. HolderID comes from the acting user.
type SubmitRequest struct {
	HolderID          id.UserID           `json:"-"`
	ServiceID         id.ServiceID        `json:"service_id"`
	IsReplacement     bool                `json:"is_replacement"`
	ReplacementReason string              `json:"replacement_reason,omitempty"`
	OfficeLocation    string              `json:"office_location,omitempty"`
	Uploads           []uploadModels.File `json:"uploads"`
}

// ValidationRequest is the engine input for this submission.
func (r SubmitRequest) ValidationRequest() validationModels.Request {
	return validationModels.Request{
		HolderID:          r.HolderID,
		ServiceID:         r.ServiceID,
		IsReplacement:     r.IsReplacement,
		ReplacementReason: r.ReplacementReason,
	}
}

// SubmitOutcome carries the engine verdict alongside the created application.
// Application is nil when the engine denied the submission.
type SubmitOutcome struct {
	Validation  validationModels.Result `json:"validation"`
	Application *Application            `json:"application,omitempty"`
	Uploads     []*uploadModels.Upload  `json:"uploads,omitempty"`
}

// Approval step names reported in warnings.
const (
	StepDocumentIssue = "document_issue"
	StepPrintEnqueue  = "print_enqueue"
	StepNotification  = "notification"
)

// StepWarning reports one approval side effect that failed after the status
// change committed. Operators remediate these by hand.
type StepWarning struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// ApprovalOutcome is the result of an approval. The application is Approved
// even when Warnings is not empty.
type ApprovalOutcome struct {
	Application *Application        `json:"application"`
	Document    *docModels.Document `json:"document,omitempty"`
	QueueItemID *id.QueueItemID     `json:"queue_item_id,omitempty"`
	Warnings    []StepWarning       `json:"warnings"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}
