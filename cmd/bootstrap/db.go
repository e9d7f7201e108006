package bootstrap

import (
	"context"
	"log/slog"

	"delivery-scheduler/internal/infra/db"
	"delivery-scheduler/internal/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var DBModule = fx.Module("db",
	fx.Provide(
		NewDB,
	),
)

// NewDB returns a nil pool when DB_ENABLED is false. Consumers treat a nil
// pool as "guard and notification log disabled".
func NewDB(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if !cfg.DB.Enabled {
		logger.Info("Postgres disabled, duplicate guard and notification log are off")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), db.ConnectTimeout)
	defer cancel()

	pool, cleanup, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to Postgres", "host", cfg.DB.Host, "db", cfg.DB.DBName)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})

	return pool, nil
}
