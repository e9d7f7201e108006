package commands

import (
	"context"
	"time"

	"delivery-scheduler/internal/domain/delivery"

	"github.com/google/uuid"
)

//go:generate mockgen -source=ports.go -destination=../../../tests/mock/commands/ports.go -package=commandsmock

type AssertionSigner interface {
	Sign() (string, error)
}

type TokenExchanger interface {
	Exchange(ctx context.Context, assertion string) (string, error)
}

type CalendarEventCreator interface {
	CreateEvent(ctx context.Context, booking delivery.Booking, accessToken string) (*delivery.BookingResult, error)
}

type Publisher interface {
	Publish(ctx context.Context, message, topic string) (*PublishReceipt, error)
}

type EmailSender interface {
	SendEmail(ctx context.Context, email delivery.Email) (*EmailReceipt, error)
}

type IdempotencyRepository interface {
	// TryInsert reports whether the key was newly claimed by this run.
	TryInsert(ctx context.Context, key uuid.UUID, runID uuid.UUID, requestHash string, expiresAt time.Time) (bool, error)
	Get(ctx context.Context, key uuid.UUID) (*IdempotencyRecord, error)
	UpdateStatusCompleted(ctx context.Context, key uuid.UUID, bookingID string) error
	Release(ctx context.Context, key uuid.UUID) error
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, job NotificationJob) error
}

type PublishReceipt struct {
	Topic     string
	Receivers int64
}

type EmailReceipt struct {
	MessageID  string
	AcceptedAt time.Time
}

type IdempotencyRecord struct {
	Key         uuid.UUID
	RunID       uuid.UUID
	Status      string
	RequestHash string
	BookingID   *string
	ExpiresAt   time.Time
}

const (
	IdempotencyStatusProcessing = "processing"
	IdempotencyStatusCompleted  = "completed"
)

type NotificationJob struct {
	RunID     uuid.UUID
	Kind      string
	Topic     string
	Payload   []byte
	Status    string
	LastError *string
	RunAt     time.Time
}

const (
	NotificationKindPubSub = "pubsub"
	NotificationKindEmail  = "email"

	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)
