package models

import (
	"encoding/base64"
	"strings"
	"time"

	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// IsDecision reports whether s is a status an admin may set.
func (s Status) IsDecision() bool {
	return s == StatusVerified || s == StatusRejected
}

// MaxFileBytes bounds a single decoded upload.
const MaxFileBytes = 10 << 20

// Upload is one evidence file attached to an application. The payload is kept
// in its submitted base64 form.
type Upload struct {
	ID              id.UploadID      `json:"id"`
	ApplicationID   id.ApplicationID `json:"application_id"`
	DocumentType    string           `json:"document_type"`
	FileName        string           `json:"file_name"`
	Payload         string           `json:"payload,omitempty"`
	SizeBytes       int64            `json:"size_bytes"`
	MimeType        string           `json:"mime_type"`
	Status          Status           `json:"status"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	VerifierID      id.UserID        `json:"verifier_id,omitempty"`
	VerifiedAt      *time.Time       `json:"verified_at,omitempty"`
	UploadedAt      time.Time        `json:"uploaded_at"`
}

// File is a citizen-supplied upload before it is attached to an application.
type File struct {
	DocumentType string `json:"document_type"`
	FileName     string `json:"file_name"`
	MimeType     string `json:"mime_type"`
	// Payload is standard base64.
	Payload string `json:"payload"`
}

// Normalize lowercases the manifest key and trims the text fields.
func (f *File) Normalize() {
	f.DocumentType = strings.ToLower(strings.TrimSpace(f.DocumentType))
	f.FileName = strings.TrimSpace(f.FileName)
	f.MimeType = strings.TrimSpace(f.MimeType)
	f.Payload = strings.TrimSpace(f.Payload)
}

// Validate checks the file fields and returns the decoded size.
func (f *File) Validate() (int64, error) {
	if f.DocumentType == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "upload document_type is required")
	}
	if f.FileName == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "upload file_name is required")
	}
	if f.MimeType == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "upload mime_type is required")
	}
	if f.Payload == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "upload payload is required")
	}
	decoded, err := base64.StdEncoding.DecodeString(f.Payload)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, "upload payload must be base64")
	}
	if len(decoded) > MaxFileBytes {
		return 0, dErrors.New(dErrors.CodeValidation, "upload exceeds the maximum file size")
	}
	return int64(len(decoded)), nil
}

// NewUpload attaches a validated file to an application in pending state.
func NewUpload(appID id.ApplicationID, f File, size int64, now time.Time) *Upload {
	return &Upload{
		ID:            id.NewUploadID(),
		ApplicationID: appID,
		DocumentType:  f.DocumentType,
		FileName:      f.FileName,
		Payload:       f.Payload,
		SizeBytes:     size,
		MimeType:      f.MimeType,
		Status:        StatusPending,
		UploadedAt:    now,
	}
}

// Decision is an admin verify or reject.
type Decision struct {
	Status     Status
	VerifierID id.UserID
	Reason     string
	At         time.Time
}
