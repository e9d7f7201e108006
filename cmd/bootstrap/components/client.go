package components

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"delivery-scheduler/internal/infra/google"
	"delivery-scheduler/internal/infra/notify"
	"delivery-scheduler/internal/pkg/clock"
	"delivery-scheduler/internal/pkg/config"
	"delivery-scheduler/internal/usecase/commands"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
)

var ClientModule = fx.Module("client",
	fx.Provide(
		NewHTTPClient,
		NewRedisClient,
		fx.Annotate(
			NewTokenClient,
			fx.As(new(commands.TokenExchanger)),
		),
		fx.Annotate(
			NewCalendarClient,
			fx.As(new(commands.CalendarEventCreator)),
		),
		fx.Annotate(
			NewRedisPublisher,
			fx.As(new(commands.Publisher)),
		),
		fx.Annotate(
			NewSMTPMailer,
			fx.As(new(commands.EmailSender)),
		),
	),
)

// NewHTTPClient is shared by the token and calendar clients. Each call is
// further bounded by PIPELINE_CALL_TIMEOUT.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func NewTokenClient(cfg config.Config, client *http.Client) *google.TokenClient {
	return google.NewTokenClient(client, cfg.Auth.TokenURI)
}

func NewCalendarClient(cfg config.Config, client *http.Client) *google.CalendarClient {
	return google.NewCalendarClient(client, cfg.Calendar.BaseURL)
}

// NewRedisClient does not fail startup when Redis is unreachable; publishing
// is best-effort and failures surface per run.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) *redis.Client {
	client := notify.NewRedisClient(cfg.Notify.RedisAddr, cfg.Notify.RedisPassword, cfg.Notify.RedisDB)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("Redis is unreachable, publishing will fail until it recovers",
					"addr", cfg.Notify.RedisAddr, "error", err)
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	return client
}

func NewRedisPublisher(client *redis.Client) *notify.RedisPublisher {
	return notify.NewRedisPublisher(client)
}

func NewSMTPMailer(cfg config.Config, clk clock.Clock) (*notify.SMTPMailer, error) {
	return notify.NewSMTPMailer(notify.SMTPSettings{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		User:     cfg.Email.SMTPUser,
		Password: cfg.Email.SMTPPassword,
	}, clk)
}
