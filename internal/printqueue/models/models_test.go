package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputePriority(t *testing.T) {
	approved := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	cases := []struct {
		elapsed time.Duration
		want    Priority
	}{
		{0, PriorityNormal},
		{23 * time.Hour, PriorityNormal},
		{24 * time.Hour, PriorityNormal},
		{24*time.Hour + time.Minute, PriorityHigh},
		{48 * time.Hour, PriorityHigh},
		{48*time.Hour + time.Second, PriorityUrgent},
		{10 * 24 * time.Hour, PriorityUrgent},
	}
	for _, tc := range cases {
		t.Run(tc.elapsed.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, ComputePriority(approved, approved.Add(tc.elapsed)))
		})
	}
}

func TestComputeTimeInQueue(t *testing.T) {
	approved := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	cases := []struct {
		elapsed time.Duration
		want    string
	}{
		{0, "less than 1 hour"},
		{59 * time.Minute, "less than 1 hour"},
		{time.Hour, "1 hour"},
		{5*time.Hour + 30*time.Minute, "5 hours"},
		{23*time.Hour + 59*time.Minute, "23 hours"},
		{24 * time.Hour, "1 day"},
		{47 * time.Hour, "1 day"},
		{72 * time.Hour, "3 days"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeTimeInQueue(approved, approved.Add(tc.elapsed)))
		})
	}
}

func TestViewIsRecomputedPerRead(t *testing.T) {
	approved := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	item := Item{ApprovedAt: approved, Status: StatusPendingPrint}

	early := NewView(item, approved.Add(2*time.Hour))
	late := NewView(item, approved.Add(50*time.Hour))

	assert.Equal(t, PriorityNormal, early.Priority)
	assert.Equal(t, PriorityUrgent, late.Priority)
	assert.Equal(t, "2 days", late.TimeInQueue)
	assert.Greater(t, PriorityUrgent.Rank(), PriorityHigh.Rank())
}
