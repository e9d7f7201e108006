//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func CreateIdempotencyKey(t *testing.T, db DBLike, key uuid.UUID, status string, bookingID *string, expiresAt time.Time) uuid.UUID {
	t.Helper()

	runID := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO idempotency_keys (key, run_id, request_hash, status, booking_id, expires_at) VALUES ($1, $2, $3, $4, $5, $6)",
		key, runID, strings.Repeat("a", 64), status, bookingID, expiresAt)
	require.NoError(t, err)

	return runID
}

func IdempotencyKeyStatus(t *testing.T, db DBLike, key uuid.UUID) (string, bool) {
	t.Helper()

	var status string
	err := db.QueryRow(context.Background(), "SELECT status FROM idempotency_keys WHERE key = $1", key).Scan(&status)
	if err != nil {
		return "", false
	}
	return status, true
}

func CountNotificationJobs(t *testing.T, db DBLike, runID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(context.Background(), "SELECT count(*) FROM notification_jobs WHERE run_id = $1", runID).Scan(&count)
	require.NoError(t, err)
	return count
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}
