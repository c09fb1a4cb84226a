package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
	"go.uber.org/mock/gomock"

	"govportal/internal/changefeed"
	notifModels "govportal/internal/notifications/models"
	"govportal/internal/printqueue/models"
	"govportal/internal/printqueue/service/mocks"
	"govportal/internal/printqueue/store"
	id "govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	auditmemory "govportal/pkg/platform/audit/store/memory"
	"govportal/pkg/platform/audit/publisher"
	"govportal/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store Notifier
type PrintQueueSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	store    *store.InMemoryStore
	notifier *mocks.MockNotifier
	audit    *auditmemory.InMemoryStore
	bus      *changefeed.MemoryBus
	service  *Service
	now      time.Time
	ctx      context.Context
}

func TestPrintQueueSuite(t *testing.T) {
	suite.Run(t, new(PrintQueueSuite))
}

func (s *PrintQueueSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = store.NewInMemory()
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.audit = auditmemory.NewInMemoryStore()
	s.bus = changefeed.NewMemoryBus()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(s.store,
		WithLogger(logger),
		WithNotifier(s.notifier),
		WithAuditPublisher(publisher.NewPublisher(s.audit, publisher.WithLogger(logger))),
		WithChangePublisher(s.bus),
		WithBulkConcurrency(4),
	)
	s.Require().NoError(err)
	s.service = svc
	s.now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *PrintQueueSuite) enqueue(holder id.UserID, approvedAgo time.Duration) *models.Item {
	item, err := s.service.Enqueue(s.ctx, EnqueueRequest{
		ApplicationID:  id.NewApplicationID(),
		HolderID:       holder,
		HolderName:     "Holder " + holder.String(),
		ServiceLabel:   "Passport",
		ApprovedAt:     s.now.Add(-approvedAgo),
		OfficeLocation: "Riverside Office",
	})
	s.Require().NoError(err)
	return item
}

func (s *PrintQueueSuite) TestNewRequiresStore() {
	_, err := New(nil)
	s.Error(err)
}

func (s *PrintQueueSuite) TestEnqueueCreatesPendingItem() {
	var events []changefeed.Event
	s.bus.OnChange(changefeed.TablePrintQueue, func(e changefeed.Event) { events = append(events, e) })

	item := s.enqueue("holder-1", time.Hour)

	s.Equal(models.StatusPendingPrint, item.Status)
	s.Nil(item.PrintedAt)
	s.Require().Len(events, 1)
	s.Equal(changefeed.OpInsert, events[0].Op)
}

func (s *PrintQueueSuite) TestEnqueueTwiceForApplicationConflicts() {
	appID := id.NewApplicationID()
	req := EnqueueRequest{ApplicationID: appID, HolderID: "holder-1", ApprovedAt: s.now}
	_, err := s.service.Enqueue(s.ctx, req)
	s.Require().NoError(err)

	_, err = s.service.Enqueue(s.ctx, req)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *PrintQueueSuite) TestEnqueueDefaultsApprovedAtToRequestTime() {
	item, err := s.service.Enqueue(s.ctx, EnqueueRequest{ApplicationID: id.NewApplicationID(), HolderID: "holder-1"})
	s.Require().NoError(err)
	s.Equal(s.now, item.ApprovedAt)
}

func (s *PrintQueueSuite) TestListOrdersByPriorityThenAge() {
	normal := s.enqueue("normal", 2*time.Hour)
	urgentNewer := s.enqueue("urgent-newer", 50*time.Hour)
	high := s.enqueue("high", 30*time.Hour)
	urgentOlder := s.enqueue("urgent-older", 80*time.Hour)

	views, err := s.service.List(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(views, 4)
	s.Equal(urgentOlder.ID, views[0].ID)
	s.Equal(urgentNewer.ID, views[1].ID)
	s.Equal(high.ID, views[2].ID)
	s.Equal(normal.ID, views[3].ID)
	s.Equal(models.PriorityUrgent, views[0].Priority)
	s.Equal("3 days", views[0].TimeInQueue)
	s.Equal("2 hours", views[3].TimeInQueue)
}

func (s *PrintQueueSuite) TestListRecomputesPriorityPerRead() {
	s.enqueue("holder-1", 23*time.Hour)

	views, err := s.service.List(s.ctx, "")
	s.Require().NoError(err)
	s.Equal(models.PriorityNormal, views[0].Priority)

	later := requestcontext.WithTime(context.Background(), s.now.Add(2*time.Hour))
	views, err = s.service.List(later, "")
	s.Require().NoError(err)
	s.Equal(models.PriorityHigh, views[0].Priority)
}

func (s *PrintQueueSuite) TestListRejectsUnknownStatus() {
	_, err := s.service.List(s.ctx, "lost")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *PrintQueueSuite) TestMarkPrintedNotifiesOnce() {
	item := s.enqueue("holder-1", time.Hour)
	s.notifier.EXPECT().
		Send(gomock.Any(), id.UserID("holder-1"), "Document ready for pickup",
			"Your Passport has been printed and is ready for pickup at Riverside Office.", notifModels.SeverityInfo).
		Return(nil).
		Times(1)

	printed, err := s.service.MarkPrinted(s.ctx, item.ID, "operator-1")
	s.Require().NoError(err)
	s.Equal(models.StatusPrinted, printed.Status)
	s.Equal(id.UserID("operator-1"), printed.PrintedBy)
	s.Require().NotNil(printed.PrintedAt)
	s.Equal(s.now, *printed.PrintedAt)

	later := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))
	_, err = s.service.MarkPrinted(later, item.ID, "operator-2")
	s.ErrorIs(err, ErrAlreadyPrinted)

	stored, err := s.store.FindByID(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Equal(id.UserID("operator-1"), stored.PrintedBy)
	s.Equal(s.now, *stored.PrintedAt)
}

func (s *PrintQueueSuite) TestMarkPrintedRecordsAudit() {
	item := s.enqueue("holder-1", time.Hour)
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.service.MarkPrinted(s.ctx, item.ID, "operator-1")
	s.Require().NoError(err)

	s.Eventually(func() bool {
		events, err := s.audit.ListBySubject(context.Background(), item.ApplicationID.String())
		return err == nil && len(events) == 1 && events[0].Action == "print_completed"
	}, time.Second, 10*time.Millisecond)
}

func (s *PrintQueueSuite) TestMarkPrintedNotificationFailureKeepsPrint() {
	item := s.enqueue("holder-1", time.Hour)
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("inbox down"))

	printed, err := s.service.MarkPrinted(s.ctx, item.ID, "operator-1")
	s.Require().NoError(err)
	s.Equal(models.StatusPrinted, printed.Status)
}

func (s *PrintQueueSuite) TestMarkPrintedUnknownItem() {
	_, err := s.service.MarkPrinted(s.ctx, id.NewQueueItemID(), "operator-1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PrintQueueSuite) TestMarkPrintedRequiresOperator() {
	item := s.enqueue("holder-1", time.Hour)
	_, err := s.service.MarkPrinted(s.ctx, item.ID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *PrintQueueSuite) TestMarkPrintedStoreFailure() {
	st := mocks.NewMockStore(s.ctrl)
	svc, err := New(st, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithNotifier(s.notifier))
	s.Require().NoError(err)
	itemID := id.NewQueueItemID()
	st.EXPECT().MarkPrintedIfPending(gomock.Any(), itemID, id.UserID("operator-1"), s.now).
		Return(nil, errors.New("connection reset"))

	_, err = svc.MarkPrinted(s.ctx, itemID, "operator-1")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *PrintQueueSuite) TestMarkPrintedBulkAttemptsEveryItem() {
	first := s.enqueue("holder-1", time.Hour)
	second := s.enqueue("holder-2", time.Hour)
	done := s.enqueue("holder-3", time.Hour)
	missing := id.NewQueueItemID()

	s.notifier.EXPECT().Send(gomock.Any(), id.UserID("holder-3"), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	_, err := s.service.MarkPrinted(s.ctx, done.ID, "operator-1")
	s.Require().NoError(err)

	var mu sync.Mutex
	notified := map[id.UserID]int{}
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), notifModels.SeverityInfo).
		DoAndReturn(func(_ context.Context, holder id.UserID, _, _ string, _ notifModels.Severity) error {
			mu.Lock()
			defer mu.Unlock()
			notified[holder]++
			return nil
		}).
		Times(2)

	report, err := s.service.MarkPrintedBulk(s.ctx,
		[]id.QueueItemID{first.ID, missing, done.ID, second.ID, first.ID}, "operator-2")
	s.Require().NoError(err)

	s.Require().Len(report.Results, 4)
	s.Equal(BulkResult{ID: first.ID, Outcome: OutcomePrinted}, report.Results[0])
	s.Equal(OutcomeNotFound, report.Results[1].Outcome)
	s.Equal(missing, report.Results[1].ID)
	s.Equal(OutcomeAlreadyPrinted, report.Results[2].Outcome)
	s.Equal(OutcomePrinted, report.Results[3].Outcome)
	s.Equal(2, report.Printed)
	s.Equal(1, report.Skipped)
	s.Equal(1, report.Failed)
	s.Equal(map[id.UserID]int{"holder-1": 1, "holder-2": 1}, notified)
}

func (s *PrintQueueSuite) TestMarkPrintedBulkRequiresIDs() {
	_, err := s.service.MarkPrintedBulk(s.ctx, nil, "operator-1")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *PrintQueueSuite) TestConcurrentBulkRunsPrintEachItemOnce() {
	var ids []id.QueueItemID
	for i := 0; i < 10; i++ {
		ids = append(ids, s.enqueue(id.UserID("holder"), time.Hour).ID)
	}
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(10)

	var wg sync.WaitGroup
	reports := make([]*BulkReport, 3)
	for i := range reports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := s.service.MarkPrintedBulk(s.ctx, ids, "operator-1")
			s.NoError(err)
			reports[i] = report
		}()
	}
	wg.Wait()

	printed := 0
	for _, r := range reports {
		printed += r.Printed
	}
	s.Equal(10, printed)
}

func (s *PrintQueueSuite) TestExportXLSX() {
	s.enqueue("holder-1", 3*time.Hour)
	s.enqueue("holder-2", 60*time.Hour)

	var buf bytes.Buffer
	s.Require().NoError(s.service.ExportXLSX(s.ctx, models.StatusPendingPrint, &buf))

	f, err := excelize.OpenReader(&buf)
	s.Require().NoError(err)
	defer f.Close()

	s.Equal([]string{exportSheet}, f.GetSheetList())
	rows, err := f.GetRows(exportSheet)
	s.Require().NoError(err)
	s.Require().Len(rows, 3)
	s.Equal("Queue ID", rows[0][0])
	s.Equal("Holder holder-2", rows[1][1])
	s.Equal("urgent", rows[1][6])
	s.Equal("Holder holder-1", rows[2][1])
	s.Equal("3 hours", rows[2][5])
}
