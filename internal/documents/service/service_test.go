package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govportal/internal/changefeed"
	"govportal/internal/documents/models"
	"govportal/internal/documents/store"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/audit"
	"govportal/pkg/platform/audit/publisher"
	auditmemory "govportal/pkg/platform/audit/store/memory"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

// collidingStore fails CreateActive with a conflict a fixed number of times.
type collidingStore struct {
	*store.InMemoryStore
	collisions int
	createErr  error
}

func (c *collidingStore) CreateActive(ctx context.Context, doc *models.Document) (int64, error) {
	if c.createErr != nil {
		return 0, c.createErr
	}
	if c.collisions > 0 {
		c.collisions--
		return 0, sentinel.ErrConflict
	}
	return c.InMemoryStore.CreateActive(ctx, doc)
}

type recordingAudit struct {
	events []audit.Event
}

func (r *recordingAudit) Emit(_ context.Context, e audit.Event) error {
	r.events = append(r.events, e)
	return nil
}

type RegistrySuite struct {
	suite.Suite
	store   *collidingStore
	audit   *recordingAudit
	bus     *changefeed.MemoryBus
	service *Service
	now     time.Time
	ctx     context.Context
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.store = &collidingStore{InMemoryStore: store.NewInMemory()}
	s.audit = &recordingAudit{}
	s.bus = changefeed.NewMemoryBus()
	svc, err := New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.audit),
		WithChangePublisher(s.bus),
		WithVerifyBaseURL("https://portal.example.gov/verify/"),
	)
	s.Require().NoError(err)
	svc.randomSuffix = func(n int) string { return strings.Repeat("X", n) }
	s.service = svc
	s.now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *RegistrySuite) TestNewRequiresStore() {
	_, err := New(nil)
	s.Error(err)
}

func (s *RegistrySuite) TestIssue() {
	appID := id.NewApplicationID()

	s.Run("expiry follows the type's validity", func() {
		cases := map[models.Type]int{
			models.TypePassport:         10,
			models.TypeNationalID:       5,
			models.TypeDriverLicense:    5,
			models.TypeBirthCertificate: 100,
		}
		for typ, years := range cases {
			doc, err := s.service.Issue(s.ctx, IssueRequest{HolderID: "H-exp", Type: typ, ApplicationID: appID})
			s.Require().NoError(err)
			s.Require().NotNil(doc.ExpiryDate)
			s.Equal(s.now.AddDate(years, 0, 0), *doc.ExpiryDate, "type %s", typ)
			s.Equal(models.StatusActive, doc.Status)
			s.Equal(s.now, doc.IssueDate)
		}
	})

	s.Run("number and verification code format", func() {
		doc, err := s.service.Issue(s.ctx, IssueRequest{HolderID: "H-fmt", Type: models.TypePassport, ApplicationID: appID})
		s.Require().NoError(err)
		s.True(strings.HasPrefix(doc.Number, "PP"))
		s.True(strings.HasSuffix(doc.Number, "XXXX"))
		s.Equal("PASSPORT-"+appID.String()+"-XXXXXXXX", doc.VerificationCode)
		s.Equal("https://portal.example.gov/verify/"+doc.VerificationCode, s.service.VerificationURL(doc))
		s.Equal(appID, doc.ApplicationID)
	})

	s.Run("rejects unknown type and missing holder", func() {
		_, err := s.service.Issue(s.ctx, IssueRequest{HolderID: "H-1", Type: "visa"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = s.service.Issue(s.ctx, IssueRequest{Type: models.TypePassport})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *RegistrySuite) TestIssueRetriesNumberCollisions() {
	s.Run("succeeds after transient collisions", func() {
		s.store.collisions = 2
		doc, err := s.service.Issue(s.ctx, IssueRequest{HolderID: "H-1", Type: models.TypeNationalID})
		s.Require().NoError(err)
		s.NotNil(doc)
	})

	s.Run("gives up with a conflict", func() {
		s.store.collisions = maxNumberAttempts
		_, err := s.service.Issue(s.ctx, IssueRequest{HolderID: "H-2", Type: models.TypeNationalID})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("store failure is internal", func() {
		s.store.createErr = errors.New("disk full")
		defer func() { s.store.createErr = nil }()
		_, err := s.service.Issue(s.ctx, IssueRequest{HolderID: "H-3", Type: models.TypeNationalID})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *RegistrySuite) TestIssueSupersedesPreviousActive() {
	holder := id.UserID("H-sup")
	first, err := s.service.Issue(s.ctx, IssueRequest{HolderID: holder, Type: models.TypePassport})
	s.Require().NoError(err)

	later := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))
	second, err := s.service.Issue(later, IssueRequest{HolderID: holder, Type: models.TypePassport})
	s.Require().NoError(err)

	prior, err := s.service.Get(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, prior.Status)

	latest, err := s.service.LatestActive(s.ctx, holder, models.TypePassport)
	s.Require().NoError(err)
	s.Equal(second.ID, latest.ID)

	var actions []string
	for _, e := range s.audit.events {
		actions = append(actions, e.Action)
	}
	s.Contains(actions, string(audit.EventDocumentSuperseded))
}

func (s *RegistrySuite) TestFailedIssueKeepsPreviousActive() {
	holder := id.UserID("H-keep")
	first, err := s.service.Issue(s.ctx, IssueRequest{HolderID: holder, Type: models.TypePassport})
	s.Require().NoError(err)

	s.store.createErr = errors.New("db down")
	defer func() { s.store.createErr = nil }()
	_, err = s.service.Issue(s.ctx, IssueRequest{HolderID: holder, Type: models.TypePassport})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	latest, err := s.service.LatestActive(s.ctx, holder, models.TypePassport)
	s.Require().NoError(err)
	s.Require().NotNil(latest)
	s.Equal(first.ID, latest.ID)
}

func (s *RegistrySuite) TestExhaustedRetriesKeepPreviousActive() {
	holder := id.UserID("H-retry")
	first, err := s.service.Issue(s.ctx, IssueRequest{HolderID: holder, Type: models.TypeNationalID})
	s.Require().NoError(err)

	s.store.collisions = maxNumberAttempts
	_, err = s.service.Issue(s.ctx, IssueRequest{HolderID: holder, Type: models.TypeNationalID})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	latest, err := s.service.LatestActive(s.ctx, holder, models.TypeNationalID)
	s.Require().NoError(err)
	s.Equal(first.ID, latest.ID)
}

func (s *RegistrySuite) TestIssuePublishesChange() {
	var got []changefeed.Event
	s.bus.OnChange(changefeed.TableDocuments, func(e changefeed.Event) { got = append(got, e) })

	doc, err := s.service.Issue(s.ctx, IssueRequest{HolderID: "H-cf", Type: models.TypeDriverLicense})
	s.Require().NoError(err)

	s.Require().Len(got, 1)
	s.Equal(changefeed.OpInsert, got[0].Op)
	s.Equal(doc.ID.String(), got[0].RecordID)
}

func (s *RegistrySuite) TestLatestActive() {
	s.Run("none is nil without error", func() {
		doc, err := s.service.LatestActive(s.ctx, "H-none", models.TypePassport)
		s.NoError(err)
		s.Nil(doc)
	})
}

func (s *RegistrySuite) TestVerify() {
	doc, err := s.service.Issue(s.ctx, IssueRequest{HolderID: "H-v", Type: models.TypeNationalID})
	s.Require().NoError(err)

	s.Run("valid while unexpired", func() {
		res, err := s.service.Verify(s.ctx, doc.VerificationCode)
		s.Require().NoError(err)
		s.True(res.Valid)
		s.Equal(models.StatusActive, res.Effective)
	})

	s.Run("expired after the expiry date", func() {
		future := requestcontext.WithTime(context.Background(), s.now.AddDate(6, 0, 0))
		res, err := s.service.Verify(future, doc.VerificationCode)
		s.Require().NoError(err)
		s.False(res.Valid)
		s.Equal(models.StatusExpired, res.Effective)
	})

	s.Run("unknown code", func() {
		_, err := s.service.Verify(s.ctx, "NATIONAL_ID-nope")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("blank code", func() {
		_, err := s.service.Verify(s.ctx, "  ")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *RegistrySuite) TestAuditReachesStore() {
	auditStore := auditmemory.NewInMemoryStore()
	svc, err := New(store.NewInMemory(), WithAuditPublisher(publisher.NewPublisher(auditStore)))
	s.Require().NoError(err)

	_, err = svc.Issue(s.ctx, IssueRequest{HolderID: "H-a", Type: models.TypePassport})
	s.Require().NoError(err)

	events, err := auditStore.ListByUser(s.ctx, "H-a")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventDocumentIssued), events[0].Action)
}
