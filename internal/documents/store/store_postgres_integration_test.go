//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govportal/internal/documents/models"
	id "govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/testutil/containers"
)

type PostgresDocumentStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestPostgresDocumentStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresDocumentStoreSuite))
}

func (s *PostgresDocumentStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresDocumentStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background()))
}

func (s *PostgresDocumentStoreSuite) TestRoundTripAndSupersede() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	expiry := now.AddDate(10, 0, 0)

	doc := &models.Document{
		ID:               id.NewDocumentID(),
		HolderID:         "H-1",
		Type:             models.TypePassport,
		Number:           "PPINTEGRATION1",
		IssueDate:        now,
		ExpiryDate:       &expiry,
		Status:           models.StatusActive,
		VerificationCode: "PASSPORT-int-1",
		CreatedAt:        now,
	}
	n, err := s.store.CreateActive(ctx, doc)
	s.Require().NoError(err)
	s.Zero(n)
	_, err = s.store.CreateActive(ctx, doc)
	s.ErrorIs(err, sentinel.ErrConflict)

	got, err := s.store.FindByVerificationCode(ctx, "PASSPORT-int-1")
	s.Require().NoError(err)
	s.Equal(doc.Number, got.Number)
	s.True(got.ApplicationID.IsNil())

	replacement := *doc
	replacement.ID = id.NewDocumentID()
	replacement.Number = "PPINTEGRATION2"
	replacement.VerificationCode = "PASSPORT-int-2"
	n, err = s.store.CreateActive(ctx, &replacement)
	s.Require().NoError(err)
	s.EqualValues(1, n)

	latest, err := s.store.FindLatestActive(ctx, "H-1", models.TypePassport)
	s.Require().NoError(err)
	s.Equal(replacement.ID, latest.ID)
}

func (s *PostgresDocumentStoreSuite) TestActiveIndexRejectsSecondActive() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	_, err := s.pg.DB.ExecContext(ctx, `
		INSERT INTO documents (id, holder_id, document_type, document_number, issue_date, status, verification_code)
		VALUES ($1, 'H-2', 'passport', 'PPIDX1', $2, 'active', 'PASSPORT-idx-1'),
		       ($3, 'H-2', 'passport', 'PPIDX2', $2, 'active', 'PASSPORT-idx-2')
	`, id.NewDocumentID().String(), now, id.NewDocumentID().String())
	s.Error(err)
}
