package models

import (
	"time"

	docModels "govportal/internal/documents/models"
	id "govportal/pkg/domain"
)

// Code identifies why a submission was blocked. Codes are part of the API
// contract and surfaced to citizens verbatim.
type Code string

const (
	CodeMissingUserID             Code = "MISSING_USER_ID"
	CodeInvalidServiceID          Code = "INVALID_SERVICE_ID"
	CodeReplacementReasonRequired Code = "REPLACEMENT_REASON_REQUIRED"
	CodeDocumentExistsValid       Code = "DOCUMENT_EXISTS_VALID"
)

// IsInputError reports whether the code is raised before any lookup.
func (c Code) IsInputError() bool {
	return c == CodeMissingUserID || c == CodeInvalidServiceID || c == CodeReplacementReasonRequired
}

// Request is a pre-submission eligibility check.
type Request struct {
	HolderID          id.UserID    `json:"holder_id"`
	ServiceID         id.ServiceID `json:"service_id"`
	IsReplacement     bool         `json:"is_replacement"`
	ReplacementReason string       `json:"replacement_reason,omitempty"`
}

// ExistingDocument summarises the holder's document that drove the decision.
type ExistingDocument struct {
	ID         id.DocumentID    `json:"id"`
	Type       docModels.Type   `json:"document_type"`
	Number     string           `json:"document_number"`
	Status     docModels.Status `json:"status"`
	IssueDate  time.Time        `json:"issue_date"`
	ExpiryDate *time.Time       `json:"expiry_date,omitempty"`
}

func NewExistingDocument(doc *docModels.Document) *ExistingDocument {
	if doc == nil {
		return nil
	}
	return &ExistingDocument{
		ID:         doc.ID,
		Type:       doc.Type,
		Number:     doc.Number,
		Status:     doc.Status,
		IssueDate:  doc.IssueDate,
		ExpiryDate: doc.ExpiryDate,
	}
}

// Result is the engine's verdict. WarningMessage is set when the existing
// document status could not be checked and the engine allowed the submission
// anyway; callers must show it prominently.
type Result struct {
	CanProceed           bool              `json:"can_proceed"`
	ErrorCode            Code              `json:"error_code,omitempty"`
	ErrorMessage         string            `json:"error_message,omitempty"`
	WarningMessage       string            `json:"warning_message,omitempty"`
	InfoMessage          string            `json:"info_message,omitempty"`
	IsReplacementAllowed bool              `json:"is_replacement_allowed"`
	ExistingDocument     *ExistingDocument `json:"existing_document,omitempty"`
	// Source names the lookup that produced the verdict, empty for input
	// errors and "fail_open" when every lookup failed.
	Source string `json:"source,omitempty"`
}

// FailedOpen reports whether the verdict was reached without a lookup.
func (r Result) FailedOpen() bool {
	return r.CanProceed && r.WarningMessage != ""
}
