package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	appModels "govportal/internal/applications/models"
	appStore "govportal/internal/applications/store"
	"govportal/internal/changefeed"
	"govportal/internal/uploads/models"
	"govportal/internal/uploads/service/mocks"
	"govportal/internal/uploads/store"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/tx"
	"govportal/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store ApplicationLock
type GateSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	apps    *appStore.InMemoryStore
	bus     *changefeed.MemoryBus
	service *Service
	appID   id.ApplicationID
	ctx     context.Context
	now     time.Time
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.apps = appStore.NewInMemory()
	s.bus = changefeed.NewMemoryBus()
	svc, err := New(s.store, tx.NewMemoryRunner(), s.apps,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithChangePublisher(s.bus),
	)
	s.Require().NoError(err)
	s.service = svc
	s.appID = id.NewApplicationID()
	s.now = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.Require().NoError(s.apps.Create(s.ctx, &appModels.Application{
		ID:          s.appID,
		HolderID:    "holder-1",
		ServiceID:   1,
		Status:      appModels.StatusPending,
		SubmittedAt: s.now,
	}))
}

func (s *GateSuite) mockedService(uploads *mocks.MockStore, apps *mocks.MockApplicationLock) *Service {
	svc, err := New(uploads, tx.NewMemoryRunner(), apps, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
	return svc
}

func (s *GateSuite) attach(labels ...string) []*models.Upload {
	var uploads []*models.Upload
	for _, label := range labels {
		uploads = append(uploads, models.NewUpload(s.appID,
			models.File{DocumentType: label, FileName: label + ".pdf", MimeType: "application/pdf", Payload: "YQ=="}, 1, s.now))
	}
	s.Require().NoError(s.service.Attach(s.ctx, uploads))
	return uploads
}

func (s *GateSuite) TestZeroUploadsIsApprovable() {
	ok, err := s.service.IsApprovable(s.ctx, s.appID)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *GateSuite) TestApprovableOnlyWhenAllVerified() {
	uploads := s.attach("photo", "national_id_copy")

	ok, err := s.service.IsApprovable(s.ctx, s.appID)
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.service.Verify(s.ctx, uploads[0].ID, "admin-1")
	s.Require().NoError(err)
	_, err = s.service.Reject(s.ctx, uploads[1].ID, "admin-1", "expired copy")
	s.Require().NoError(err)

	ok, err = s.service.IsApprovable(s.ctx, s.appID)
	s.Require().NoError(err)
	s.False(ok, "a rejected upload blocks approval")

	verified, err := s.service.Verify(s.ctx, uploads[1].ID, "admin-2")
	s.Require().NoError(err)
	s.Equal(id.UserID("admin-2"), verified.VerifierID)
	s.Equal(s.now, *verified.VerifiedAt)

	ok, err = s.service.IsApprovable(s.ctx, s.appID)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *GateSuite) TestRejectRequiresReason() {
	uploads := s.attach("photo")

	_, err := s.service.Reject(s.ctx, uploads[0].ID, "admin-1", "   ")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	list, err := s.service.ListDocuments(s.ctx, s.appID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, list[0].Status)
}

func (s *GateSuite) TestSetStatusInputChecks() {
	uploads := s.attach("photo")

	_, err := s.service.SetStatus(s.ctx, uploads[0].ID, models.StatusPending, "admin-1", "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Verify(s.ctx, uploads[0].ID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Verify(s.ctx, id.NewUploadID(), "admin-1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *GateSuite) TestDecisionPublishesChange() {
	uploads := s.attach("photo")
	var got []changefeed.Event
	s.bus.OnChange(changefeed.TableUploads, func(e changefeed.Event) { got = append(got, e) })

	_, err := s.service.Verify(s.ctx, uploads[0].ID, "admin-1")
	s.Require().NoError(err)

	s.Require().Len(got, 1)
	s.Equal(changefeed.OpUpdate, got[0].Op)
	s.Equal(uploads[0].ID.String(), got[0].RecordID)
}

func (s *GateSuite) TestNewRequiresDependencies() {
	_, err := New(nil, tx.NewMemoryRunner(), s.apps)
	s.Error(err)
	_, err = New(s.store, nil, s.apps)
	s.Error(err)
	_, err = New(s.store, tx.NewMemoryRunner(), nil)
	s.Error(err)
}

func (s *GateSuite) TestAttachPublishesOnlyOnAnnounce() {
	var got []changefeed.Event
	s.bus.OnChange(changefeed.TableUploads, func(e changefeed.Event) { got = append(got, e) })

	uploads := s.attach("photo", "national_id_copy")
	s.Empty(got, "uncommitted uploads are not announced")

	s.service.Announce(s.ctx, uploads)
	s.Require().Len(got, 2)
	s.Equal(changefeed.OpInsert, got[0].Op)
}

func (s *GateSuite) TestDecisionRefusedOnceApplicationReviewed() {
	uploads := s.attach("photo")
	_, err := s.service.Verify(s.ctx, uploads[0].ID, "admin-1")
	s.Require().NoError(err)

	_, err = s.apps.DecideIfPending(s.ctx, s.appID, appModels.Review{
		Status:     appModels.StatusApproved,
		ReviewerID: "admin-1",
		At:         s.now,
	})
	s.Require().NoError(err)

	_, err = s.service.Reject(s.ctx, uploads[0].ID, "admin-2", "photo is blurred")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	list, err := s.service.ListDocuments(s.ctx, s.appID)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, list[0].Status, "approved application keeps its verified uploads")
}

func (s *GateSuite) TestDecisionLockFailureIsInternal() {
	ctrl := gomock.NewController(s.T())
	mockStore := mocks.NewMockStore(ctrl)
	mockApps := mocks.NewMockApplicationLock(ctrl)
	svc := s.mockedService(mockStore, mockApps)
	upload := &models.Upload{ID: id.NewUploadID(), ApplicationID: s.appID, Status: models.StatusPending}

	mockStore.EXPECT().FindByID(gomock.Any(), upload.ID).Return(upload, nil)
	mockApps.EXPECT().LockPending(gomock.Any(), s.appID).Return(false, errors.New("lock timeout"))
	mockStore.EXPECT().SetStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.Verify(s.ctx, upload.ID, "admin-1")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *GateSuite) TestFailedWriteNeverVerifies() {
	ctrl := gomock.NewController(s.T())
	mockStore := mocks.NewMockStore(ctrl)
	mockApps := mocks.NewMockApplicationLock(ctrl)
	svc := s.mockedService(mockStore, mockApps)
	uploadID := id.NewUploadID()

	mockStore.EXPECT().FindByID(gomock.Any(), uploadID).
		Return(&models.Upload{ID: uploadID, ApplicationID: s.appID, Status: models.StatusPending}, nil)
	mockApps.EXPECT().LockPending(gomock.Any(), s.appID).Return(true, nil)
	mockStore.EXPECT().SetStatus(gomock.Any(), uploadID, gomock.Any()).Return(nil, errors.New("write timeout")).Times(1)

	upload, err := svc.Verify(s.ctx, uploadID, "admin-1")
	s.Nil(upload)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *GateSuite) TestIsApprovableStoreFailure() {
	ctrl := gomock.NewController(s.T())
	mockStore := mocks.NewMockStore(ctrl)
	svc := s.mockedService(mockStore, mocks.NewMockApplicationLock(ctrl))

	mockStore.EXPECT().CountUnresolved(gomock.Any(), s.appID).Return(0, errors.New("db down"))

	ok, err := svc.IsApprovable(s.ctx, s.appID)
	s.False(ok)
	s.Error(err)
}
