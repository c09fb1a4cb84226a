package models

import (
	"time"

	id "govportal/pkg/domain"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
)

// Document is an issued credential. Records are only created by approval and
// afterwards only change status.
type Document struct {
	ID               id.DocumentID    `json:"id"`
	HolderID         id.UserID        `json:"holder_id"`
	Type             Type             `json:"document_type"`
	Number           string           `json:"document_number"`
	IssueDate        time.Time        `json:"issue_date"`
	ExpiryDate       *time.Time       `json:"expiry_date,omitempty"`
	Status           Status           `json:"status"`
	VerificationCode string           `json:"verification_code"`
	ApplicationID    id.ApplicationID `json:"application_id"`
	CreatedAt        time.Time        `json:"created_at"`
}

// IsExpired reports whether the expiry date has passed. Documents without an
// expiry date never expire.
func (d *Document) IsExpired(now time.Time) bool {
	return d.ExpiryDate != nil && d.ExpiryDate.Before(now)
}

// EffectiveStatus reports expired for active documents past their expiry date.
// The stored status is not rewritten.
func (d *Document) EffectiveStatus(now time.Time) Status {
	if d.Status == StatusActive && d.IsExpired(now) {
		return StatusExpired
	}
	return d.Status
}
