package middleware

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"delivery-scheduler/internal/handler/httperr"
	"delivery-scheduler/internal/pkg/config"

	"github.com/gin-gonic/gin"
)

var errInvalidTriggerToken = errors.New("invalid trigger token")

type TriggerAuth struct {
	token []byte
}

// An empty token disables the check.
func NewTriggerAuth(cfg config.TriggerConfig) *TriggerAuth {
	return &TriggerAuth{token: []byte(strings.TrimSpace(cfg.Token))}
}

func (m *TriggerAuth) Enabled() bool {
	return len(m.token) > 0
}

// RequireToken accepts "Authorization: Bearer <token>" or the same value in
// the X-Trigger-Token header.
func (m *TriggerAuth) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.Enabled() {
			c.Next()
			return
		}

		token := bearerToken(c)
		if token == "" {
			token = strings.TrimSpace(c.GetHeader("X-Trigger-Token"))
		}

		if token == "" || subtle.ConstantTimeCompare([]byte(token), m.token) != 1 {
			slog.Warn("Trigger token rejected", "path", c.Request.URL.Path, "client_ip", c.ClientIP())
			httperr.AbortWithError(c, http.StatusUnauthorized, errInvalidTriggerToken, "Unauthorized", nil)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}
