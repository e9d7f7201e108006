package queries

import (
	"context"
	"time"

	"delivery-scheduler/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrNotificationLogDisabled = errs.New("notification log is disabled")

// NotificationJobView represents read-optimized notification job data
type NotificationJobView struct {
	ID        uuid.UUID `json:"id"`
	RunID     uuid.UUID `json:"run_id"`
	Kind      string    `json:"kind"`
	Topic     string    `json:"topic"`
	Status    string    `json:"status"`
	Attempts  int32     `json:"attempts"`
	LastError *string   `json:"last_error,omitempty"`
	RunAt     time.Time `json:"run_at"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationReadStore interface {
	FindByRunID(ctx context.Context, runID uuid.UUID) ([]*NotificationJobView, error)
}

//go:generate mockgen -source=notification.go -destination=../../../tests/mock/queries/notification.go -package=queriesmock

type NotificationQueries interface {
	ListByRun(ctx context.Context, runID uuid.UUID) ([]*NotificationJobView, error)
}

type notificationQueriesImpl struct {
	store NotificationReadStore
}

// A nil store yields ErrNotificationLogDisabled from every query.
func NewNotificationQueries(store NotificationReadStore) NotificationQueries {
	return &notificationQueriesImpl{store: store}
}

func (q *notificationQueriesImpl) ListByRun(ctx context.Context, runID uuid.UUID) ([]*NotificationJobView, error) {
	if q.store == nil {
		return nil, ErrNotificationLogDisabled
	}

	jobs, err := q.store.FindByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []*NotificationJobView{}
	}
	return jobs, nil
}
