package repository

import (
	"context"

	"delivery-scheduler/internal/infra"
	"delivery-scheduler/internal/pkg/pgconv"
	"delivery-scheduler/internal/usecase/commands"

	"github.com/google/uuid"
)

const createNotificationJob = `
INSERT INTO notification_jobs (id, run_id, kind, topic, payload, status, last_error, run_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

type NotificationRepository struct {
	db infra.DBTX
}

func NewNotificationRepository(db infra.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateJob(ctx context.Context, job commands.NotificationJob) error {
	_, err := r.db.Exec(ctx, createNotificationJob,
		uuid.New(),
		job.RunID,
		job.Kind,
		job.Topic,
		job.Payload,
		job.Status,
		pgconv.StringPtrToPgtype(job.LastError),
		pgconv.TimeToPgtype(job.RunAt),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create notification job", err)
	}
	return nil
}
