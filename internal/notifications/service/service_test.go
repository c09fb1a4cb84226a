package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govportal/internal/notifications/models"
	"govportal/internal/notifications/store"
	"govportal/internal/platform/metrics"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/requestcontext"
)

type failingStore struct {
	*store.InMemoryStore
}

func (failingStore) Create(context.Context, *models.Notification) error {
	return errors.New("insert failed")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendAndInbox(t *testing.T) {
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	svc, err := New(store.NewInMemory(), WithLogger(discardLogger()))
	require.NoError(t, err)

	require.NoError(t, svc.Send(ctx, "H-1", " Application approved ", "Collect at Central Office", models.SeveritySuccess))
	require.NoError(t, svc.Send(ctx, "H-1", "Odd severity", "", "loud"))

	list, err := svc.ListForHolder(ctx, "H-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, n := range list {
		assert.Equal(t, now, n.CreatedAt)
		assert.False(t, n.Read)
		if n.Title == "Odd severity" {
			assert.Equal(t, models.SeverityInfo, n.Severity)
		} else {
			assert.Equal(t, "Application approved", n.Title)
		}
	}

	require.NoError(t, svc.MarkRead(ctx, list[0].ID, "H-1"))
	err = svc.MarkRead(ctx, list[0].ID, "H-2")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = svc.ListForHolder(ctx, "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestSendFailureIsReportedNotPanicked(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	svc, err := New(failingStore{store.NewInMemory()}, WithLogger(discardLogger()), WithMetrics(m))
	require.NoError(t, err)

	err = svc.Send(context.Background(), "H-1", "t", "b", models.SeverityError)

	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.Equal(t, float64(1), promtest.ToFloat64(m.NotificationFailures))
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
