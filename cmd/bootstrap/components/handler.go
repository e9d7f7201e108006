package components

import (
	"delivery-scheduler/internal/handler"
	"delivery-scheduler/internal/handler/api"
	"delivery-scheduler/internal/handler/middleware"
	"delivery-scheduler/internal/pkg/config"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewDeliveryHandler,
		func(cfg config.Config) *middleware.TriggerAuth {
			return middleware.NewTriggerAuth(cfg.Trigger)
		},
	),
	fx.Invoke(handler.NewRouter),
)
