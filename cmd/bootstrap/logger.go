package bootstrap

import (
	"log/slog"

	"delivery-scheduler/internal/handler/middleware"
	"delivery-scheduler/internal/pkg/config"

	"go.uber.org/fx"
)

var LoggerModule = fx.Module("logger",
	fx.Provide(
		NewLogger,
		NewSlogLogger,
	),
)

func NewLogger(cfg config.Config) *middleware.Logger {
	return middleware.NewLogger(cfg.Log)
}

// NewSlogLogger also installs the logger as the slog default so that
// packages logging through slog.Default share its handler.
func NewSlogLogger(l *middleware.Logger) *slog.Logger {
	logger := l.Slog()
	slog.SetDefault(logger)
	return logger
}
