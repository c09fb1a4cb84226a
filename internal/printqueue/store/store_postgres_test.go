package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govportal/internal/printqueue/models"
	id "govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
)

var itemRowColumns = []string{"id", "application_id", "holder_id", "holder_name", "service_label", "approved_at",
	"print_status", "printed_at", "printed_by", "office_location", "document_id"}

func TestPostgresStore_CreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	item := newItem(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO print_queue")).
		WillReturnError(&pq.Error{Code: "23505"})

	err = NewPostgres(db).Create(context.Background(), item)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateStoresDocumentID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	docID := id.NewDocumentID()
	item := newItem(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	item.DocumentID = &docID
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO print_queue")).
		WithArgs(item.ID.String(), item.ApplicationID.String(), "holder-1", "", "", item.ApprovedAt,
			"pending_print", "", sql.NullString{String: docID.String(), Valid: true}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgres(db).Create(context.Background(), item))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkPrintedIfPending(t *testing.T) {
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	itemID := id.NewQueueItemID()
	appID := id.NewApplicationID()
	update := regexp.QuoteMeta("UPDATE print_queue")
	find := regexp.QuoteMeta("FROM print_queue WHERE id = $1")

	t.Run("transitions pending item", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(update).
			WithArgs(itemID.String(), now, "op-1").
			WillReturnRows(sqlmock.NewRows(itemRowColumns).AddRow(itemID.String(), appID.String(), "holder-1", "Ada",
				"Passport", now.Add(-time.Hour), "printed", now, "op-1", "Riverside", ""))

		item, err := NewPostgres(db).MarkPrintedIfPending(context.Background(), itemID, "op-1", now)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPrinted, item.Status)
		assert.Equal(t, id.UserID("op-1"), item.PrintedBy)
		assert.Nil(t, item.DocumentID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already printed is invalid state", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(update).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(find).WithArgs(itemID.String()).
			WillReturnRows(sqlmock.NewRows(itemRowColumns).AddRow(itemID.String(), appID.String(), "holder-1", "Ada",
				"Passport", now.Add(-time.Hour), "printed", now, "op-0", "Riverside", ""))

		_, err = NewPostgres(db).MarkPrintedIfPending(context.Background(), itemID, "op-1", now)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing item is not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(update).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(find).WillReturnError(sql.ErrNoRows)

		_, err = NewPostgres(db).MarkPrintedIfPending(context.Background(), itemID, "op-1", now)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver failure is wrapped", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		boom := errors.New("connection reset")
		mock.ExpectQuery(update).WillReturnError(boom)

		_, err = NewPostgres(db).MarkPrintedIfPending(context.Background(), itemID, "op-1", now)
		assert.ErrorIs(t, err, boom)
	})
}

func TestPostgresStore_ListByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	docID := id.NewDocumentID()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE print_status = $1")).
		WithArgs("pending_print").
		WillReturnRows(sqlmock.NewRows(itemRowColumns).AddRow(id.NewQueueItemID().String(), id.NewApplicationID().String(),
			"holder-1", "Ada", "Passport", now, "pending_print", nil, "", "Riverside", docID.String()))

	items, err := NewPostgres(db).List(context.Background(), models.StatusPendingPrint)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].DocumentID)
	assert.Equal(t, docID, *items[0].DocumentID)
	assert.Nil(t, items[0].PrintedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
