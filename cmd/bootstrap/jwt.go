package bootstrap

import (
	"delivery-scheduler/internal/pkg/clock"
	"delivery-scheduler/internal/pkg/config"
	"delivery-scheduler/internal/pkg/jwt"
	"delivery-scheduler/internal/usecase/commands"

	"go.uber.org/fx"
)

var JWTModule = fx.Module("jwt",
	fx.Provide(
		fx.Annotate(
			NewAssertionSigner,
			fx.As(new(commands.AssertionSigner)),
		),
	),
)

func NewAssertionSigner(cfg config.Config, clk clock.Clock) (*jwt.AssertionSigner, error) {
	key, err := jwt.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		return nil, err
	}

	return jwt.NewAssertionSigner(key, jwt.AssertionParams{
		Issuer:   cfg.Auth.ServiceAccount,
		Audience: cfg.Auth.TokenURI,
		Scope:    cfg.Auth.Scope,
		KeyID:    cfg.Auth.KeyID,
		Lifetime: cfg.Auth.AssertionLifetime,
	}, clk)
}
