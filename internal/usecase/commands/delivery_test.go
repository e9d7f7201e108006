//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"delivery-scheduler/internal/domain/delivery"
	"delivery-scheduler/internal/pkg/clock"
	"delivery-scheduler/internal/pkg/errs"
	"delivery-scheduler/internal/usecase/commands"
	commandsmock "delivery-scheduler/tests/mock/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const testTopic = "deliveries.scheduled"

type DeliveryCommandsTestSuite struct {
	suite.Suite
	mockCtrl         *gomock.Controller
	signer           *commandsmock.MockAssertionSigner
	exchanger        *commandsmock.MockTokenExchanger
	calendar         *commandsmock.MockCalendarEventCreator
	publisher        *commandsmock.MockPublisher
	mailer           *commandsmock.MockEmailSender
	idempotencyRepo  *commandsmock.MockIdempotencyRepository
	notificationRepo *commandsmock.MockNotificationRepository
	clock            *clock.MockClock
	settings         commands.Settings
	payload          delivery.TriggerPayload
	jobs             []commands.NotificationJob
}

func (s *DeliveryCommandsTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.signer = commandsmock.NewMockAssertionSigner(s.mockCtrl)
	s.exchanger = commandsmock.NewMockTokenExchanger(s.mockCtrl)
	s.calendar = commandsmock.NewMockCalendarEventCreator(s.mockCtrl)
	s.publisher = commandsmock.NewMockPublisher(s.mockCtrl)
	s.mailer = commandsmock.NewMockEmailSender(s.mockCtrl)
	s.idempotencyRepo = commandsmock.NewMockIdempotencyRepository(s.mockCtrl)
	s.notificationRepo = commandsmock.NewMockNotificationRepository(s.mockCtrl)
	s.clock = clock.NewMockClock(time.Date(2021, 3, 30, 16, 25, 6, 0, time.UTC))
	s.jobs = nil

	s.settings = commands.Settings{
		CalendarID:        "cal@example.com",
		Topic:             testTopic,
		Email:             delivery.EmailSettings{From: "dispatch@example.com", Subject: "Your delivery is booked"},
		WindowLengthHours: 2,
		CallTimeout:       time.Second,
		IdempotencyTTL:    24 * time.Hour,
	}
	s.payload = delivery.TriggerPayload{
		ReceivedTimestamp: "2021-03-30T16:25:05Z",
		CustomerName:      "Grace Hopper",
		CustomerEmail:     "Grace@Example.com",
		CustomerNumber:    "+1 555 0101",
	}
}

func (s *DeliveryCommandsTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestDeliveryCommandsSuite(t *testing.T) {
	suite.Run(t, new(DeliveryCommandsTestSuite))
}

func (s *DeliveryCommandsTestSuite) newCommands(withIdempotency bool) commands.DeliveryCommands {
	var idem commands.IdempotencyRepository
	if withIdempotency {
		idem = s.idempotencyRepo
	}
	return commands.NewDeliveryCommands(
		delivery.NewCalculator(delivery.MustLoadZone(delivery.DefaultZoneName)),
		s.signer,
		s.exchanger,
		s.calendar,
		s.publisher,
		s.mailer,
		idem,
		s.notificationRepo,
		s.settings,
		s.clock,
		nil,
	)
}

func (s *DeliveryCommandsTestSuite) expectAuthenticated() {
	s.signer.EXPECT().Sign().Return("signed-assertion", nil)
	s.exchanger.EXPECT().Exchange(gomock.Any(), "signed-assertion").Return("access-token", nil)
}

func (s *DeliveryCommandsTestSuite) expectBooked() {
	s.calendar.EXPECT().CreateEvent(gomock.Any(), gomock.Any(), "access-token").
		DoAndReturn(func(_ context.Context, b delivery.Booking, _ string) (*delivery.BookingResult, error) {
			return &delivery.BookingResult{ID: "evt-1", Status: "confirmed"}, nil
		})
}

func (s *DeliveryCommandsTestSuite) captureJobs(times int) {
	s.notificationRepo.EXPECT().CreateJob(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job commands.NotificationJob) error {
			s.jobs = append(s.jobs, job)
			return nil
		}).Times(times)
}

// ================================================================================
// TestSchedule
// ================================================================================

func (s *DeliveryCommandsTestSuite) TestSchedule_Success() {
	ny := delivery.MustLoadZone(delivery.DefaultZoneName).Location()
	wantStart := time.Date(2021, 3, 31, 12, 0, 0, 0, ny)

	s.expectAuthenticated()
	s.calendar.EXPECT().CreateEvent(gomock.Any(), gomock.Any(), "access-token").
		DoAndReturn(func(_ context.Context, b delivery.Booking, _ string) (*delivery.BookingResult, error) {
			s.True(b.Window.Start().Equal(wantStart))
			s.Equal("cal@example.com", b.CalendarID)
			s.Equal("Delivery: Grace Hopper", b.Summary)
			return &delivery.BookingResult{ID: "evt-1"}, nil
		})
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), testTopic).
		Return(&commands.PublishReceipt{Topic: testTopic, Receivers: 1}, nil)
	s.mailer.EXPECT().SendEmail(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, email delivery.Email) (*commands.EmailReceipt, error) {
			s.Equal("grace@example.com", email.To)
			s.Equal("dispatch@example.com", email.From)
			return &commands.EmailReceipt{MessageID: "m-1"}, nil
		})
	s.captureJobs(2)

	result, err := s.newCommands(false).Schedule(context.Background(), s.payload)

	s.Require().NoError(err)
	s.Equal(commands.StageDone, result.Stage)
	s.False(result.IsReplayed)
	s.True(result.Window.Start().Equal(wantStart))
	s.True(result.Window.End().Equal(wantStart.Add(2 * time.Hour)))
	s.Equal("evt-1", result.BookingResult.ID)
	s.True(result.Notification.Published)
	s.True(result.Notification.Emailed)
	s.NoError(result.Notification.PublishErr)
	s.NoError(result.Notification.EmailErr)

	s.Require().Len(s.jobs, 2)
	for _, job := range s.jobs {
		s.Equal(result.RunID, job.RunID)
		s.Equal(commands.NotificationStatusSent, job.Status)
		s.Nil(job.LastError)
	}
}

func (s *DeliveryCommandsTestSuite) TestSchedule_AuthFailureStopsPipeline() {
	cases := []struct {
		name  string
		setup func()
	}{
		{
			name: "token exchange rejected",
			setup: func() {
				s.signer.EXPECT().Sign().Return("signed-assertion", nil)
				s.exchanger.EXPECT().Exchange(gomock.Any(), "signed-assertion").Return("", errors.New("invalid_grant"))
			},
		},
		{
			name: "assertion signing failed",
			setup: func() {
				s.signer.EXPECT().Sign().Return("", errors.New("bad key"))
			},
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.SetupTest()
			tc.setup()
			s.calendar.EXPECT().CreateEvent(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			s.mailer.EXPECT().SendEmail(gomock.Any(), gomock.Any()).Times(0)
			s.notificationRepo.EXPECT().CreateJob(gomock.Any(), gomock.Any()).Times(0)

			result, err := s.newCommands(false).Schedule(context.Background(), s.payload)

			s.Require().NotNil(result)
			s.Equal(commands.StageFailed, result.Stage)
			s.True(errs.Is(err, commands.ErrAuthFailed))
			s.False(errs.Is(err, commands.ErrBookingFailed))
		})
	}
}

func (s *DeliveryCommandsTestSuite) TestSchedule_BookingFailureSkipsNotifications() {
	s.expectAuthenticated()
	s.calendar.EXPECT().CreateEvent(gomock.Any(), gomock.Any(), "access-token").
		Return(nil, errors.New("calendar unavailable"))
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	s.mailer.EXPECT().SendEmail(gomock.Any(), gomock.Any()).Times(0)

	result, err := s.newCommands(false).Schedule(context.Background(), s.payload)

	s.Require().NotNil(result)
	s.Equal(commands.StageFailed, result.Stage)
	s.Nil(result.BookingResult)
	s.True(errs.Is(err, commands.ErrBookingFailed))
}

func (s *DeliveryCommandsTestSuite) TestSchedule_CallerCancellationDoesNotDropNotifications() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.expectAuthenticated()
	s.calendar.EXPECT().CreateEvent(gomock.Any(), gomock.Any(), "access-token").
		DoAndReturn(func(_ context.Context, _ delivery.Booking, _ string) (*delivery.BookingResult, error) {
			cancel()
			return &delivery.BookingResult{ID: "evt-1"}, nil
		})
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), testTopic).
		DoAndReturn(func(ctx context.Context, _, _ string) (*commands.PublishReceipt, error) {
			return &commands.PublishReceipt{}, ctx.Err()
		})
	s.mailer.EXPECT().SendEmail(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ delivery.Email) (*commands.EmailReceipt, error) {
			return &commands.EmailReceipt{}, ctx.Err()
		})
	s.captureJobs(2)

	result, err := s.newCommands(false).Schedule(ctx, s.payload)

	s.Require().NoError(err)
	s.Equal("evt-1", result.BookingResult.ID)
	s.True(result.Notification.Published)
	s.True(result.Notification.Emailed)
	s.NoError(result.Notification.PublishErr)
	s.NoError(result.Notification.EmailErr)
}

func (s *DeliveryCommandsTestSuite) TestSchedule_PublishFailureStillSendsEmail() {
	s.expectAuthenticated()
	s.expectBooked()
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), testTopic).
		Return(nil, errors.New("connection refused"))
	s.mailer.EXPECT().SendEmail(gomock.Any(), gomock.Any()).
		Return(&commands.EmailReceipt{MessageID: "m-1"}, nil).Times(1)
	s.captureJobs(2)

	result, err := s.newCommands(false).Schedule(context.Background(), s.payload)

	s.Require().NoError(err)
	s.Equal(commands.StageDone, result.Stage)
	s.False(result.Notification.Published)
	s.True(result.Notification.Emailed)
	s.True(errs.Is(result.Notification.PublishErr, commands.ErrPublishFailed))

	statuses := map[string]string{}
	for _, job := range s.jobs {
		statuses[job.Kind] = job.Status
	}
	s.Equal(commands.NotificationStatusFailed, statuses[commands.NotificationKindPubSub])
	s.Equal(commands.NotificationStatusSent, statuses[commands.NotificationKindEmail])
}

func (s *DeliveryCommandsTestSuite) TestSchedule_EmailFailureIsNotEscalated() {
	s.expectAuthenticated()
	s.expectBooked()
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), testTopic).
		Return(&commands.PublishReceipt{Topic: testTopic}, nil)
	s.mailer.EXPECT().SendEmail(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("550 mailbox unavailable"))
	s.captureJobs(2)

	result, err := s.newCommands(false).Schedule(context.Background(), s.payload)

	s.Require().NoError(err)
	s.True(result.Notification.Published)
	s.False(result.Notification.Emailed)
	s.True(errs.Is(result.Notification.EmailErr, commands.ErrEmailFailed))
}

func (s *DeliveryCommandsTestSuite) TestSchedule_NotificationLogFailureIsIgnored() {
	s.expectAuthenticated()
	s.expectBooked()
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), testTopic).
		Return(&commands.PublishReceipt{Topic: testTopic}, nil)
	s.mailer.EXPECT().SendEmail(gomock.Any(), gomock.Any()).
		Return(&commands.EmailReceipt{}, nil)
	s.notificationRepo.EXPECT().CreateJob(gomock.Any(), gomock.Any()).
		Return(errors.New("db down")).Times(2)

	result, err := s.newCommands(false).Schedule(context.Background(), s.payload)

	s.Require().NoError(err)
	s.Equal(commands.StageDone, result.Stage)
}

func (s *DeliveryCommandsTestSuite) TestSchedule_InvalidPayload() {
	cases := []struct {
		name   string
		mutate func(p *delivery.TriggerPayload)
	}{
		{name: "missing timestamp", mutate: func(p *delivery.TriggerPayload) { p.ReceivedTimestamp = "" }},
		{name: "unparseable timestamp", mutate: func(p *delivery.TriggerPayload) { p.ReceivedTimestamp = "yesterday-ish" }},
		{name: "missing customer", mutate: func(p *delivery.TriggerPayload) { p.CustomerName = "  " }},
		{name: "bad email", mutate: func(p *delivery.TriggerPayload) { p.CustomerEmail = "not-an-email" }},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.SetupTest()
			payload := s.payload
			tc.mutate(&payload)

			result, err := s.newCommands(true).Schedule(context.Background(), payload)

			s.Nil(result)
			s.True(errs.Is(err, commands.ErrInvalidPayload))
		})
	}
}

// ================================================================================
// Duplicate trigger guard
// ================================================================================

func (s *DeliveryCommandsTestSuite) TestSchedule_IdempotencyClaimAndComplete() {
	expiresAt := s.clock.Now().Add(24 * time.Hour)
	var claimed uuid.UUID

	s.idempotencyRepo.EXPECT().TryInsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), expiresAt).
		DoAndReturn(func(_ context.Context, key, _ uuid.UUID, hash string, _ time.Time) (bool, error) {
			claimed = key
			s.Len(hash, 64)
			return true, nil
		})
	s.expectAuthenticated()
	s.expectBooked()
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), testTopic).Return(&commands.PublishReceipt{}, nil)
	s.mailer.EXPECT().SendEmail(gomock.Any(), gomock.Any()).Return(&commands.EmailReceipt{}, nil)
	s.captureJobs(2)
	s.idempotencyRepo.EXPECT().UpdateStatusCompleted(gomock.Any(), gomock.Any(), "evt-1").
		DoAndReturn(func(_ context.Context, key uuid.UUID, _ string) error {
			s.Equal(claimed, key)
			return nil
		})

	result, err := s.newCommands(true).Schedule(context.Background(), s.payload)

	s.Require().NoError(err)
	s.Equal(commands.StageDone, result.Stage)
}

func (s *DeliveryCommandsTestSuite) TestSchedule_IdempotencyReplay() {
	bookingID := "evt-previous"
	runID := uuid.New()

	s.idempotencyRepo.EXPECT().TryInsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)
	s.idempotencyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).
		Return(&commands.IdempotencyRecord{RunID: runID, Status: commands.IdempotencyStatusCompleted, BookingID: &bookingID}, nil)
	s.signer.EXPECT().Sign().Times(0)
	s.calendar.EXPECT().CreateEvent(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	result, err := s.newCommands(true).Schedule(context.Background(), s.payload)

	s.Require().NoError(err)
	s.True(result.IsReplayed)
	s.Equal(runID, result.RunID)
	s.Equal(bookingID, result.BookingResult.ID)
	s.False(result.Window.IsZero())
}

func (s *DeliveryCommandsTestSuite) TestSchedule_IdempotencyInProgress() {
	s.idempotencyRepo.EXPECT().TryInsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)
	s.idempotencyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).
		Return(&commands.IdempotencyRecord{Status: commands.IdempotencyStatusProcessing}, nil)

	result, err := s.newCommands(true).Schedule(context.Background(), s.payload)

	s.Nil(result)
	s.True(errs.Is(err, commands.ErrIdempotencyInProgress))
}

func (s *DeliveryCommandsTestSuite) TestSchedule_IdempotencyStoreFailureRunsUnguarded() {
	s.idempotencyRepo.EXPECT().TryInsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(false, errors.New("connection reset"))
	s.expectAuthenticated()
	s.expectBooked()
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), testTopic).Return(&commands.PublishReceipt{}, nil)
	s.mailer.EXPECT().SendEmail(gomock.Any(), gomock.Any()).Return(&commands.EmailReceipt{}, nil)
	s.captureJobs(2)
	s.idempotencyRepo.EXPECT().UpdateStatusCompleted(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	result, err := s.newCommands(true).Schedule(context.Background(), s.payload)

	s.Require().NoError(err)
	s.Equal(commands.StageDone, result.Stage)
	s.Equal("evt-1", result.BookingResult.ID)
}

func (s *DeliveryCommandsTestSuite) TestSchedule_IdempotencyLookupFailureRunsUnguarded() {
	s.idempotencyRepo.EXPECT().TryInsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)
	s.idempotencyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))
	s.expectAuthenticated()
	s.expectBooked()
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), testTopic).Return(&commands.PublishReceipt{}, nil)
	s.mailer.EXPECT().SendEmail(gomock.Any(), gomock.Any()).Return(&commands.EmailReceipt{}, nil)
	s.captureJobs(2)

	result, err := s.newCommands(true).Schedule(context.Background(), s.payload)

	s.Require().NoError(err)
	s.False(result.IsReplayed)
}

func (s *DeliveryCommandsTestSuite) TestSchedule_FatalFailureReleasesKey() {
	s.idempotencyRepo.EXPECT().TryInsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	s.signer.EXPECT().Sign().Return("signed-assertion", nil)
	s.exchanger.EXPECT().Exchange(gomock.Any(), gomock.Any()).Return("", errors.New("invalid_grant"))
	s.idempotencyRepo.EXPECT().Release(gomock.Any(), gomock.Any()).Return(nil)
	s.idempotencyRepo.EXPECT().UpdateStatusCompleted(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := s.newCommands(true).Schedule(context.Background(), s.payload)

	s.True(errs.Is(err, commands.ErrAuthFailed))
}

func (s *DeliveryCommandsTestSuite) TestSchedule_ReleaseSurvivesCallerCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.idempotencyRepo.EXPECT().TryInsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	s.expectAuthenticated()
	s.calendar.EXPECT().CreateEvent(gomock.Any(), gomock.Any(), "access-token").
		DoAndReturn(func(_ context.Context, _ delivery.Booking, _ string) (*delivery.BookingResult, error) {
			cancel()
			return nil, errors.New("calendar unavailable")
		})
	s.idempotencyRepo.EXPECT().Release(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ uuid.UUID) error {
			s.NoError(ctx.Err())
			return nil
		})

	_, err := s.newCommands(true).Schedule(ctx, s.payload)

	s.True(errs.Is(err, commands.ErrBookingFailed))
}

func (s *DeliveryCommandsTestSuite) TestSchedule_SamePayloadSameKey() {
	var keys []uuid.UUID
	s.idempotencyRepo.EXPECT().TryInsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, key, _ uuid.UUID, _ string, _ time.Time) (bool, error) {
			keys = append(keys, key)
			return false, nil
		}).Times(2)
	s.idempotencyRepo.EXPECT().Get(gomock.Any(), gomock.Any()).
		Return(&commands.IdempotencyRecord{Status: commands.IdempotencyStatusProcessing}, nil).Times(2)

	cmd := s.newCommands(true)
	_, _ = cmd.Schedule(context.Background(), s.payload)

	// Normalisation makes case and padding differences irrelevant.
	variant := s.payload
	variant.CustomerEmail = "  grace@example.com "
	_, _ = cmd.Schedule(context.Background(), variant)

	s.Require().Len(keys, 2)
	s.Equal(keys[0], keys[1])
}
