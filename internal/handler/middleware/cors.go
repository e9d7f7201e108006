package middleware

import (
	"log/slog"
	"slices"

	"delivery-scheduler/internal/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewCORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	// gin-contrib/cors rejects "*" inside AllowOrigins.
	if slices.Contains(cfg.AllowOrigins, "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowOrigins
	}

	if !slices.Contains(corsCfg.AllowHeaders, "X-Trigger-Token") {
		corsCfg.AllowHeaders = append(slices.Clone(corsCfg.AllowHeaders), "X-Trigger-Token")
	}
	if !slices.Contains(corsCfg.ExposeHeaders, "X-Request-ID") {
		corsCfg.ExposeHeaders = append(slices.Clone(corsCfg.ExposeHeaders), "X-Request-ID")
	}

	slog.Info("CORS middleware initialized", "AllowOrigins", cfg.AllowOrigins, "AllowAllOrigins", corsCfg.AllowAllOrigins)
	return cors.New(corsCfg)
}
