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

	"govportal/internal/documents/models"
	id "govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
	txcontext "govportal/pkg/platform/tx"
)

var documentRowColumns = []string{"id", "holder_id", "document_type", "document_number", "issue_date",
	"expiry_date", "status", "verification_code", "application_id", "created_at"}

func TestPostgresStore_FindLatestActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	docID := id.NewDocumentID()
	appID := id.NewApplicationID()
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE holder_id = $1 AND document_type = $2 AND status = 'active'")).
		WithArgs("H-1", "passport").
		WillReturnRows(sqlmock.NewRows(documentRowColumns).
			AddRow(docID.String(), "H-1", "passport", "PP123", issued, expiry, "active", "code", appID.String(), issued))

	doc, err := NewPostgres(db).FindLatestActive(context.Background(), "H-1", models.TypePassport)
	require.NoError(t, err)
	assert.Equal(t, docID, doc.ID)
	assert.Equal(t, appID, doc.ApplicationID)
	require.NotNil(t, doc.ExpiryDate)
	assert.Equal(t, expiry, *doc.ExpiryDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindLatestActive_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM documents").WillReturnError(sql.ErrNoRows)

	_, err = NewPostgres(db).FindLatestActive(context.Background(), "H-1", models.TypePassport)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func newPassport() *models.Document {
	return &models.Document{
		ID:               id.NewDocumentID(),
		HolderID:         "H-1",
		Type:             models.TypePassport,
		Number:           "PP1",
		Status:           models.StatusActive,
		VerificationCode: "PASSPORT-1",
	}
}

func TestPostgresStore_CreateActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'cancelled'")).
		WithArgs("H-1", "passport").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := NewPostgres(db).CreateActive(context.Background(), newPassport())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateActiveRollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'cancelled'")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO documents").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err = NewPostgres(db).CreateActive(context.Background(), newPassport())
	require.Error(t, err)
	require.NotErrorIs(t, err, sentinel.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet(), "the cancellation must not be committed")
}

func TestPostgresStore_CreateActiveConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'cancelled'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO documents").WillReturnError(&pq.Error{Code: uniqueViolation})
	mock.ExpectRollback()

	_, err = NewPostgres(db).CreateActive(context.Background(), newPassport())
	require.ErrorIs(t, err, sentinel.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateActiveJoinsTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'cancelled'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(0, 1))

	sqlTx, err := db.Begin()
	require.NoError(t, err)
	n, err := NewPostgres(db).CreateActive(txcontext.WithTx(context.Background(), sqlTx), newPassport())
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet(), "no nested begin or commit")
}
