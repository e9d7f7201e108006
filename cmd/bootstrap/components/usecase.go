package components

import (
	"log/slog"

	"delivery-scheduler/internal/domain/delivery"
	"delivery-scheduler/internal/pkg/clock"
	"delivery-scheduler/internal/pkg/config"
	"delivery-scheduler/internal/usecase/commands"
	"delivery-scheduler/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	NewCalculator,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		NewDeliveryCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		NewWindowQueries,
		queries.NewNotificationQueries,
	),
)

func NewCalculator(cfg config.Config) (*delivery.Calculator, error) {
	zone, err := delivery.LoadZone(cfg.Calendar.TimeZone)
	if err != nil {
		return nil, err
	}
	return delivery.NewCalculator(zone), nil
}

func NewWindowQueries(cfg config.Config, calc *delivery.Calculator) queries.WindowQueries {
	return queries.NewWindowQueries(calc, cfg.Pipeline.WindowLengthHours)
}

type deliveryDeps struct {
	fx.In

	Calculator       *delivery.Calculator
	Signer           commands.AssertionSigner
	Exchanger        commands.TokenExchanger
	Calendar         commands.CalendarEventCreator
	Publisher        commands.Publisher
	Mailer           commands.EmailSender
	IdempotencyRepo  commands.IdempotencyRepository
	NotificationRepo commands.NotificationRepository
	Clock            clock.Clock
	Logger           *slog.Logger
}

func NewDeliveryCommands(cfg config.Config, deps deliveryDeps) commands.DeliveryCommands {
	settings := commands.Settings{
		CalendarID: cfg.Calendar.ID,
		Topic:      cfg.Notify.Topic,
		Email: delivery.EmailSettings{
			From:    cfg.Email.From,
			Bcc:     cfg.Email.Bcc,
			Subject: cfg.Email.Subject,
		},
		WindowLengthHours: cfg.Pipeline.WindowLengthHours,
		CallTimeout:       cfg.Pipeline.CallTimeout,
		IdempotencyTTL:    cfg.Idempotency.TTL,
	}

	return commands.NewDeliveryCommands(
		deps.Calculator,
		deps.Signer,
		deps.Exchanger,
		deps.Calendar,
		deps.Publisher,
		deps.Mailer,
		deps.IdempotencyRepo,
		deps.NotificationRepo,
		settings,
		deps.Clock,
		deps.Logger,
	)
}
