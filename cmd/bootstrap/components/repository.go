package components

import (
	"context"
	"log/slog"

	"delivery-scheduler/internal/infra/readstore"
	"delivery-scheduler/internal/infra/repository"
	"delivery-scheduler/internal/pkg/config"
	"delivery-scheduler/internal/usecase/commands"
	"delivery-scheduler/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

// Every constructor here returns a nil interface when the pool is nil, so the
// use cases see the feature as disabled rather than a typed nil.
var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewIdempotencyRepository,
		NewNotificationRepository,
		NewNotificationReadStore,
	),
	fx.Invoke(SweepExpiredIdempotencyKeys),
)

func NewIdempotencyRepository(cfg config.Config, pool *pgxpool.Pool) commands.IdempotencyRepository {
	if pool == nil || !cfg.Idempotency.Enabled {
		return nil
	}
	return repository.NewIdempotencyRepository(pool)
}

func NewNotificationRepository(pool *pgxpool.Pool) commands.NotificationRepository {
	if pool == nil {
		return nil
	}
	return repository.NewNotificationRepository(pool)
}

func NewNotificationReadStore(pool *pgxpool.Pool) queries.NotificationReadStore {
	if pool == nil {
		return nil
	}
	return readstore.NewNotificationReadStore(pool)
}

// SweepExpiredIdempotencyKeys deletes keys whose TTL has passed. Expired keys
// are also reclaimable on insert, so this only keeps the table small.
func SweepExpiredIdempotencyKeys(lc fx.Lifecycle, cfg config.Config, pool *pgxpool.Pool, logger *slog.Logger) {
	if pool == nil || !cfg.Idempotency.Enabled {
		return
	}
	repo := repository.NewIdempotencyRepository(pool)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				logger.Warn("Failed to sweep expired idempotency keys", "error", err)
				return nil
			}
			logger.Info("Swept expired idempotency keys", "deleted", n)
			return nil
		},
	})
}
