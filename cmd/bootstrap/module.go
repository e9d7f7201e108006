package bootstrap

import (
	"delivery-scheduler/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	JWTModule,
	components.ClientModule,
	components.RepositoryModule,
	components.UseCaseModule,
	components.HandlerModule,
)
