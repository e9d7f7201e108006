package jwt

import (
	"crypto/rsa"
	"errors"
	"strings"
	"time"

	"delivery-scheduler/internal/pkg/clock"

	"github.com/golang-jwt/jwt/v5"
)

// MaxAssertionLifetime is the longest validity the token endpoint accepts.
const MaxAssertionLifetime = 3540 * time.Second

var (
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrMissingIdentity   = errors.New("service identity is required")
)

// Audience shadows the embedded claim so it is encoded as a plain string.
type AssertionClaims struct {
	Scope    string `json:"scope"`
	Audience string `json:"aud"`
	jwt.RegisteredClaims
}

type AssertionSigner struct {
	key      *rsa.PrivateKey
	keyID    string
	issuer   string
	audience string
	scope    string
	lifetime time.Duration
	clock    clock.Clock
}

type AssertionParams struct {
	Issuer   string
	Audience string
	Scope    string
	KeyID    string
	Lifetime time.Duration
}

func NewAssertionSigner(key *rsa.PrivateKey, params AssertionParams, clk clock.Clock) (*AssertionSigner, error) {
	if key == nil {
		return nil, ErrInvalidPrivateKey
	}
	if strings.TrimSpace(params.Issuer) == "" {
		return nil, ErrMissingIdentity
	}

	lifetime := params.Lifetime
	if lifetime <= 0 || lifetime > MaxAssertionLifetime {
		lifetime = MaxAssertionLifetime
	}

	return &AssertionSigner{
		key:      key,
		keyID:    params.KeyID,
		issuer:   params.Issuer,
		audience: params.Audience,
		scope:    params.Scope,
		lifetime: lifetime,
		clock:    clk,
	}, nil
}

// ParseRSAPrivateKey accepts PEM text where newlines may have been escaped
// as a literal "\n", which is how keys usually arrive through env vars.
func ParseRSAPrivateKey(pemText string) (*rsa.PrivateKey, error) {
	normalized := strings.ReplaceAll(pemText, `\n`, "\n")
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(normalized))
	if err != nil {
		return nil, errors.Join(ErrInvalidPrivateKey, err)
	}
	return key, nil
}

// Sign returns a compact RS256 assertion for the JWT-bearer grant.
func (s *AssertionSigner) Sign() (string, error) {
	now := s.clock.Now()
	claims := AssertionClaims{
		Scope:    s.scope,
		Audience: s.audience,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.keyID != "" {
		token.Header["kid"] = s.keyID
	}
	return token.SignedString(s.key)
}

func (s *AssertionSigner) Lifetime() time.Duration {
	return s.lifetime
}
