package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govportal/internal/printqueue/models"
	id "govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
)

func newItem(now time.Time) *models.Item {
	return &models.Item{
		ID:            id.NewQueueItemID(),
		ApplicationID: id.NewApplicationID(),
		HolderID:      "holder-1",
		ApprovedAt:    now,
		Status:        models.StatusPendingPrint,
	}
}

func TestInMemoryStore_CreateIsUniquePerApplication(t *testing.T) {
	st := NewInMemory()
	ctx := context.Background()
	item := newItem(time.Now())
	require.NoError(t, st.Create(ctx, item))

	dup := newItem(time.Now())
	dup.ApplicationID = item.ApplicationID
	assert.ErrorIs(t, st.Create(ctx, dup), sentinel.ErrConflict)
}

func TestInMemoryStore_ListFiltersByStatus(t *testing.T) {
	st := NewInMemory()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a, b := newItem(now), newItem(now)
	require.NoError(t, st.Create(ctx, a))
	require.NoError(t, st.Create(ctx, b))
	_, err := st.MarkPrintedIfPending(ctx, a.ID, "op", now)
	require.NoError(t, err)

	all, err := st.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := st.List(ctx, models.StatusPendingPrint)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)
}

func TestInMemoryStore_MarkPrintedIfPending(t *testing.T) {
	st := NewInMemory()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	item := newItem(now)
	require.NoError(t, st.Create(ctx, item))

	printed, err := st.MarkPrintedIfPending(ctx, item.ID, "op-1", now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPrinted, printed.Status)

	_, err = st.MarkPrintedIfPending(ctx, item.ID, "op-2", now.Add(time.Hour))
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)

	stored, err := st.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, id.UserID("op-1"), stored.PrintedBy)
	assert.Equal(t, now, *stored.PrintedAt)

	_, err = st.MarkPrintedIfPending(ctx, id.NewQueueItemID(), "op-1", now)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_MarkPrintedIfPendingIsExclusive(t *testing.T) {
	st := NewInMemory()
	ctx := context.Background()
	item := newItem(time.Now())
	require.NoError(t, st.Create(ctx, item))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := st.MarkPrintedIfPending(ctx, item.ID, "op", time.Now()); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
