package models

import (
	"fmt"
	"time"

	id "govportal/pkg/domain"
)

type Status string

const (
	StatusPendingPrint Status = "pending_print"
	StatusPrinted      Status = "printed"
)

func (s Status) IsValid() bool {
	return s == StatusPendingPrint || s == StatusPrinted
}

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities for sorting; higher is more pressing.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 2
	case PriorityHigh:
		return 1
	}
	return 0
}

// Item is the stored print work item, a snapshot taken at approval. Derived
// fields live on View and are never stored.
type Item struct {
	ID             id.QueueItemID   `json:"id"`
	ApplicationID  id.ApplicationID `json:"application_id"`
	HolderID       id.UserID        `json:"holder_id"`
	HolderName     string           `json:"holder_name"`
	ServiceLabel   string           `json:"service_label"`
	ApprovedAt     time.Time        `json:"approved_at"`
	Status         Status           `json:"print_status"`
	PrintedAt      *time.Time       `json:"printed_at,omitempty"`
	PrintedBy      id.UserID        `json:"printed_by,omitempty"`
	OfficeLocation string           `json:"office_location"`
	DocumentID     *id.DocumentID   `json:"document_id,omitempty"`
}

// View is an item as read at a point in time.
type View struct {
	Item
	TimeInQueue string   `json:"time_in_queue"`
	Priority    Priority `json:"priority"`
}

func NewView(item Item, now time.Time) View {
	return View{
		Item:        item,
		TimeInQueue: ComputeTimeInQueue(item.ApprovedAt, now),
		Priority:    ComputePriority(item.ApprovedAt, now),
	}
}

// ComputeTimeInQueue buckets elapsed time into whole days, else whole hours.
func ComputeTimeInQueue(approvedAt, now time.Time) string {
	elapsed := now.Sub(approvedAt)
	days := int(elapsed / (24 * time.Hour))
	if days >= 1 {
		return plural(days, "day")
	}
	hours := int(elapsed / time.Hour)
	if hours >= 1 {
		return plural(hours, "hour")
	}
	return "less than 1 hour"
}

// ComputePriority: urgent past 48h, high past 24h, otherwise normal.
func ComputePriority(approvedAt, now time.Time) Priority {
	elapsed := now.Sub(approvedAt)
	switch {
	case elapsed > 48*time.Hour:
		return PriorityUrgent
	case elapsed > 24*time.Hour:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
