package readstore

import (
	"context"

	"delivery-scheduler/internal/infra"
	"delivery-scheduler/internal/pkg/pgconv"
	"delivery-scheduler/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const findNotificationJobsByRunID = `
SELECT id, run_id, kind, topic, status, attempts, last_error, run_at, created_at
FROM notification_jobs
WHERE run_id = $1
ORDER BY created_at, kind`

type NotificationReadStore struct {
	db infra.DBTX
}

func NewNotificationReadStore(db infra.DBTX) *NotificationReadStore {
	return &NotificationReadStore{db: db}
}

func (s *NotificationReadStore) FindByRunID(ctx context.Context, runID uuid.UUID) ([]*queries.NotificationJobView, error) {
	rows, err := s.db.Query(ctx, findNotificationJobsByRunID, runID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list notification jobs", err)
	}

	result, err := pgx.CollectRows(rows, toNotificationJobView)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan notification jobs", err)
	}
	return result, nil
}

func toNotificationJobView(row pgx.CollectableRow) (*queries.NotificationJobView, error) {
	var (
		view      queries.NotificationJobView
		lastError pgtype.Text
		runAt     pgtype.Timestamptz
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(&view.ID, &view.RunID, &view.Kind, &view.Topic, &view.Status,
		&view.Attempts, &lastError, &runAt, &createdAt)
	if err != nil {
		return nil, err
	}

	view.LastError = pgconv.StringPtrFromPgtype(lastError)
	view.RunAt = pgconv.TimeFromPgtype(runAt)
	view.CreatedAt = pgconv.TimeFromPgtype(createdAt)
	return &view, nil
}
