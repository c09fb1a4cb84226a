package models

import (
	"time"

	id "govportal/pkg/domain"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// Notification is an inbox entry. An empty HolderID marks a broadcast.
type Notification struct {
	ID        id.NotificationID `json:"id"`
	HolderID  id.UserID         `json:"holder_id,omitempty"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Severity  Severity          `json:"severity"`
	CreatedAt time.Time         `json:"created_at"`
	Read      bool              `json:"is_read"`
}
