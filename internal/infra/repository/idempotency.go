package repository

import (
	"context"
	"time"

	"delivery-scheduler/internal/infra"
	"delivery-scheduler/internal/pkg/pgconv"
	"delivery-scheduler/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// An expired key is taken over by the next claimant.
const tryInsertIdempotencyKey = `
INSERT INTO idempotency_keys (key, run_id, request_hash, status, expires_at)
VALUES ($1, $2, $3, 'processing', $4)
ON CONFLICT (key) DO UPDATE
SET run_id = EXCLUDED.run_id,
    request_hash = EXCLUDED.request_hash,
    status = 'processing',
    booking_id = NULL,
    expires_at = EXCLUDED.expires_at,
    updated_at = now()
WHERE idempotency_keys.expires_at < now()`

const getIdempotencyKey = `
SELECT key, run_id, status, request_hash, booking_id, expires_at
FROM idempotency_keys
WHERE key = $1`

const updateIdempotencyKeyCompleted = `
UPDATE idempotency_keys
SET status = 'completed', booking_id = $2, updated_at = now()
WHERE key = $1`

const releaseIdempotencyKey = `
DELETE FROM idempotency_keys
WHERE key = $1 AND status = 'processing'`

const deleteExpiredIdempotencyKeys = `
DELETE FROM idempotency_keys
WHERE expires_at < now()`

type IdempotencyRepository struct {
	db infra.DBTX
}

func NewIdempotencyRepository(db infra.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) TryInsert(ctx context.Context, key uuid.UUID, runID uuid.UUID, requestHash string, expiresAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, tryInsertIdempotencyKey, key, runID, requestHash, pgconv.TimeToPgtype(expiresAt))
	if err != nil {
		return false, infra.WrapRepoErr("failed to try insert idempotency key", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *IdempotencyRepository) Get(ctx context.Context, key uuid.UUID) (*commands.IdempotencyRecord, error) {
	var (
		rec       commands.IdempotencyRecord
		bookingID pgtype.Text
		expiresAt pgtype.Timestamptz
	)

	err := r.db.QueryRow(ctx, getIdempotencyKey, key).
		Scan(&rec.Key, &rec.RunID, &rec.Status, &rec.RequestHash, &bookingID, &expiresAt)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}

	rec.BookingID = pgconv.StringPtrFromPgtype(bookingID)
	rec.ExpiresAt = pgconv.TimeFromPgtype(expiresAt)
	return &rec, nil
}

func (r *IdempotencyRepository) UpdateStatusCompleted(ctx context.Context, key uuid.UUID, bookingID string) error {
	tag, err := r.db.Exec(ctx, updateIdempotencyKeyCompleted, key, pgconv.StringToPgtype(bookingID))
	if err != nil {
		return infra.WrapRepoErr("failed to update idempotency key status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("idempotency key not found", pgx.ErrNoRows)
	}
	return nil
}

func (r *IdempotencyRepository) Release(ctx context.Context, key uuid.UUID) error {
	if _, err := r.db.Exec(ctx, releaseIdempotencyKey, key); err != nil {
		return infra.WrapRepoErr("failed to release idempotency key", err)
	}
	return nil
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteExpiredIdempotencyKeys)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete expired idempotency keys", err)
	}
	return tag.RowsAffected(), nil
}
