package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"delivery-scheduler/internal/domain/delivery"
	"delivery-scheduler/internal/pkg/clock"
	"delivery-scheduler/internal/pkg/errs"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidPayload        = errs.New("invalid trigger payload")
	ErrWindowComputation     = errs.New("window computation failed")
	ErrAuthFailed            = errs.New("authentication failed")
	ErrBookingFailed         = errs.New("booking failed")
	ErrPublishFailed         = errs.New("publish failed")
	ErrEmailFailed           = errs.New("email failed")
	ErrIdempotencyInProgress = errs.New("idempotency in progress")
)

var triggerNamespace = uuid.MustParse("0b6f3f5e-7d0a-4c59-9a4c-2f7a1f0f8e21")

type Stage string

const (
	StageStart          Stage = "start"
	StageWindowComputed Stage = "window_computed"
	StageAuthenticated  Stage = "authenticated"
	StageBooked         Stage = "booked"
	StageNotified       Stage = "notified"
	StageDone           Stage = "done"
	StageFailed         Stage = "failed"
)

type NotificationOutcome struct {
	Published  bool
	Emailed    bool
	PublishErr error
	EmailErr   error
}

type ScheduleResult struct {
	RunID         uuid.UUID
	Stage         Stage
	Window        delivery.Window
	Booking       *delivery.Booking
	BookingResult *delivery.BookingResult
	Notification  NotificationOutcome
	IsReplayed    bool
}

type Settings struct {
	CalendarID        string
	Topic             string
	Email             delivery.EmailSettings
	WindowLengthHours int
	CallTimeout       time.Duration
	IdempotencyTTL    time.Duration
}

//go:generate mockgen -source=delivery.go -destination=../../../tests/mock/commands/delivery.go -package=commandsmock

type DeliveryCommands interface {
	// Schedule returns a result in StageFailed alongside the error when
	// authentication or booking aborts the run.
	Schedule(ctx context.Context, payload delivery.TriggerPayload) (*ScheduleResult, error)
}

type deliveryCommandsImpl struct {
	calculator       *delivery.Calculator
	signer           AssertionSigner
	exchanger        TokenExchanger
	calendar         CalendarEventCreator
	publisher        Publisher
	mailer           EmailSender
	idempotencyRepo  IdempotencyRepository
	notificationRepo NotificationRepository
	settings         Settings
	clock            clock.Clock
	logger           *slog.Logger
}

// idempotencyRepo and notificationRepo may be nil, which disables the
// duplicate-trigger guard and the notification log respectively.
func NewDeliveryCommands(
	calculator *delivery.Calculator,
	signer AssertionSigner,
	exchanger TokenExchanger,
	calendar CalendarEventCreator,
	publisher Publisher,
	mailer EmailSender,
	idempotencyRepo IdempotencyRepository,
	notificationRepo NotificationRepository,
	settings Settings,
	clock clock.Clock,
	logger *slog.Logger,
) DeliveryCommands {
	if logger == nil {
		logger = slog.Default()
	}
	return &deliveryCommandsImpl{
		calculator:       calculator,
		signer:           signer,
		exchanger:        exchanger,
		calendar:         calendar,
		publisher:        publisher,
		mailer:           mailer,
		idempotencyRepo:  idempotencyRepo,
		notificationRepo: notificationRepo,
		settings:         settings,
		clock:            clock,
		logger:           logger,
	}
}

// Schedule runs one trigger to completion. The caller's cancellation is not
// propagated: once a booking exists the customer must still be notified.
func (d *deliveryCommandsImpl) Schedule(ctx context.Context, payload delivery.TriggerPayload) (*ScheduleResult, error) {
	ctx = context.WithoutCancel(ctx)
	payload = payload.Normalized()
	if err := payload.Validate(); err != nil {
		return nil, errs.Mark(err, ErrInvalidPayload)
	}

	received, err := delivery.ParseReceivedTimestamp(payload.ReceivedTimestamp, d.calculator.Zone())
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidPayload)
	}

	result := &ScheduleResult{RunID: uuid.New(), Stage: StageStart}
	log := d.logger.With(slog.String("run_id", result.RunID.String()))

	key, replay, err := d.claimTrigger(ctx, log, result.RunID, payload)
	if err != nil {
		log.Warn("trigger claim rejected", "error", err)
		return nil, err
	}
	if replay != nil {
		return d.replayed(replay, received)
	}

	if err := d.run(ctx, log, result, payload, received); err != nil {
		log.Error("delivery pipeline failed", "last_stage", result.Stage, "error", err)
		result.Stage = StageFailed
		d.releaseTrigger(ctx, log, key)
		return result, err
	}

	d.completeTrigger(ctx, log, key, result.BookingResult)
	result.Stage = StageDone
	log.Info("delivery pipeline completed",
		"booking_id", result.BookingResult.ID,
		"window_start", result.Window.Start(),
		"published", result.Notification.Published,
		"emailed", result.Notification.Emailed,
	)
	return result, nil
}

// run executes the sequential steps. Only authentication and booking are
// fatal; notification failures are recorded on the result.
func (d *deliveryCommandsImpl) run(
	ctx context.Context,
	log *slog.Logger,
	result *ScheduleResult,
	payload delivery.TriggerPayload,
	received time.Time,
) error {
	window, err := d.calculator.ComputeWindow(received, d.settings.WindowLengthHours)
	if err != nil {
		return errs.Mark(err, ErrWindowComputation)
	}
	result.Window = window
	result.Stage = StageWindowComputed
	log.Info("delivery window computed", "received_at", received, "start", window.Start(), "end", window.End())

	token, err := d.authenticate(ctx)
	if err != nil {
		return err
	}
	result.Stage = StageAuthenticated

	booking := delivery.NewBooking(result.RunID, d.settings.CalendarID, d.calculator.Zone(), payload, window)
	bookingResult, err := d.book(ctx, booking, token)
	if err != nil {
		return err
	}
	result.Booking = &booking
	result.BookingResult = bookingResult
	result.Stage = StageBooked
	log.Info("delivery booked", "booking_id", bookingResult.ID)

	result.Notification = d.notify(ctx, log, result.RunID, booking, bookingResult, payload)
	result.Stage = StageNotified
	return nil
}

func (d *deliveryCommandsImpl) authenticate(ctx context.Context) (string, error) {
	assertion, err := d.signer.Sign()
	if err != nil {
		return "", errs.Mark(errs.Wrap(err, "sign assertion"), ErrAuthFailed)
	}

	callCtx, cancel := d.withCallTimeout(ctx)
	defer cancel()

	token, err := d.exchanger.Exchange(callCtx, assertion)
	if err != nil {
		return "", errs.Mark(errs.Wrap(err, "exchange assertion"), ErrAuthFailed)
	}
	return token, nil
}

func (d *deliveryCommandsImpl) book(ctx context.Context, booking delivery.Booking, token string) (*delivery.BookingResult, error) {
	callCtx, cancel := d.withCallTimeout(ctx)
	defer cancel()

	res, err := d.calendar.CreateEvent(callCtx, booking, token)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "create calendar event"), ErrBookingFailed)
	}
	if res == nil {
		return nil, errs.Mark(errs.New("calendar returned no event"), ErrBookingFailed)
	}
	return res, nil
}

// notify fans out the pub/sub message and the customer email. Both branches
// are always attempted and neither failure is escalated.
func (d *deliveryCommandsImpl) notify(
	ctx context.Context,
	log *slog.Logger,
	runID uuid.UUID,
	booking delivery.Booking,
	bookingResult *delivery.BookingResult,
	payload delivery.TriggerPayload,
) NotificationOutcome {
	var (
		outcome      NotificationOutcome
		message      string
		email        delivery.Email
		composeEmail error
	)

	message, publishCompose := delivery.NewScheduledMessage(booking, bookingResult, payload).Encode()
	email, composeEmail = delivery.NewCustomerEmail(d.settings.Email, booking, payload)

	var g errgroup.Group
	g.Go(func() error {
		if publishCompose != nil {
			outcome.PublishErr = errs.Mark(publishCompose, ErrPublishFailed)
			return nil
		}
		outcome.PublishErr = d.publish(ctx, message)
		outcome.Published = outcome.PublishErr == nil
		return nil
	})
	g.Go(func() error {
		if composeEmail != nil {
			outcome.EmailErr = errs.Mark(composeEmail, ErrEmailFailed)
			return nil
		}
		outcome.EmailErr = d.sendEmail(ctx, email)
		outcome.Emailed = outcome.EmailErr == nil
		return nil
	})
	_ = g.Wait()

	if outcome.PublishErr != nil {
		log.Warn("publish notification failed", "topic", d.settings.Topic, "error", outcome.PublishErr)
	}
	if outcome.EmailErr != nil {
		log.Warn("customer email failed", "to", email.To, "error", outcome.EmailErr)
	}

	d.recordNotification(ctx, log, runID, NotificationKindPubSub, d.settings.Topic, []byte(message), outcome.PublishErr)
	d.recordNotification(ctx, log, runID, NotificationKindEmail, email.To, []byte(email.Subject), outcome.EmailErr)

	return outcome
}

func (d *deliveryCommandsImpl) publish(ctx context.Context, message string) error {
	callCtx, cancel := d.withCallTimeout(ctx)
	defer cancel()

	if _, err := d.publisher.Publish(callCtx, message, d.settings.Topic); err != nil {
		return errs.Mark(err, ErrPublishFailed)
	}
	return nil
}

func (d *deliveryCommandsImpl) sendEmail(ctx context.Context, email delivery.Email) error {
	callCtx, cancel := d.withCallTimeout(ctx)
	defer cancel()

	if _, err := d.mailer.SendEmail(callCtx, email); err != nil {
		return errs.Mark(err, ErrEmailFailed)
	}
	return nil
}

func (d *deliveryCommandsImpl) recordNotification(
	ctx context.Context,
	log *slog.Logger,
	runID uuid.UUID,
	kind, topic string,
	payload []byte,
	sendErr error,
) {
	if d.notificationRepo == nil {
		return
	}

	job := NotificationJob{
		RunID:   runID,
		Kind:    kind,
		Topic:   topic,
		Payload: payload,
		Status:  NotificationStatusSent,
		RunAt:   d.clock.Now(),
	}
	if sendErr != nil {
		msg := sendErr.Error()
		job.Status = NotificationStatusFailed
		job.LastError = &msg
	}

	if err := d.notificationRepo.CreateJob(ctx, job); err != nil {
		log.Warn("failed to record notification job", "kind", kind, "error", err)
	}
}

// claimTrigger returns the stored record when the same payload was already
// scheduled. With the guard disabled or unreachable every trigger is processed.
func (d *deliveryCommandsImpl) claimTrigger(
	ctx context.Context,
	log *slog.Logger,
	runID uuid.UUID,
	payload delivery.TriggerPayload,
) (uuid.UUID, *IdempotencyRecord, error) {
	if d.idempotencyRepo == nil {
		return uuid.Nil, nil, nil
	}

	requestHash := calculatePayloadHash(payload)
	key := uuid.NewSHA1(triggerNamespace, []byte(requestHash))
	expiresAt := d.clock.Now().Add(d.settings.IdempotencyTTL)

	inserted, err := d.idempotencyRepo.TryInsert(ctx, key, runID, requestHash, expiresAt)
	if err != nil {
		log.Warn("idempotency store unavailable, running unguarded", "error", err)
		return uuid.Nil, nil, nil
	}
	if inserted {
		return key, nil, nil
	}

	existing, err := d.idempotencyRepo.Get(ctx, key)
	if err != nil {
		log.Warn("idempotency store unavailable, running unguarded", "error", err)
		return uuid.Nil, nil, nil
	}

	switch existing.Status {
	case IdempotencyStatusCompleted:
		return key, existing, nil
	case IdempotencyStatusProcessing:
		return uuid.Nil, nil, ErrIdempotencyInProgress
	default:
		log.Warn("invalid idempotency key status, running unguarded", "status", existing.Status)
		return uuid.Nil, nil, nil
	}
}

func (d *deliveryCommandsImpl) replayed(record *IdempotencyRecord, received time.Time) (*ScheduleResult, error) {
	window, err := d.calculator.ComputeWindow(received, d.settings.WindowLengthHours)
	if err != nil {
		return nil, errs.Mark(err, ErrWindowComputation)
	}

	result := &ScheduleResult{
		RunID:      record.RunID,
		Stage:      StageDone,
		Window:     window,
		IsReplayed: true,
	}
	if record.BookingID != nil {
		result.BookingResult = &delivery.BookingResult{ID: *record.BookingID}
	}
	d.logger.Info("duplicate trigger replayed", "run_id", record.RunID.String(), "key", record.Key.String())
	return result, nil
}

func (d *deliveryCommandsImpl) completeTrigger(ctx context.Context, log *slog.Logger, key uuid.UUID, res *delivery.BookingResult) {
	if d.idempotencyRepo == nil || key == uuid.Nil {
		return
	}
	if err := d.idempotencyRepo.UpdateStatusCompleted(ctx, key, res.ID); err != nil {
		log.Warn("failed to complete idempotency key", "error", err)
	}
}

// releaseTrigger frees the key after a fatal failure so redelivery can retry.
func (d *deliveryCommandsImpl) releaseTrigger(ctx context.Context, log *slog.Logger, key uuid.UUID) {
	if d.idempotencyRepo == nil || key == uuid.Nil {
		return
	}
	if err := d.idempotencyRepo.Release(ctx, key); err != nil {
		log.Warn("failed to release idempotency key", "error", err)
	}
}

func (d *deliveryCommandsImpl) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.settings.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.settings.CallTimeout)
}

func calculatePayloadHash(p delivery.TriggerPayload) string {
	data, _ := json.Marshal(p)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
