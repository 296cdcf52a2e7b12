package token

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"auth-service/internal/metrics"
	"auth-service/internal/model"
)

const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 365 * 24 * time.Hour
	DefaultIssuer   = "auth-service"
)

// Issuer mints access and refresh tokens.
type Issuer struct {
	keys          KeySource
	refreshSecret []byte
	issuer        string
	now           func() time.Time
	metrics       *metrics.Metrics
}

type IssuerOption func(*Issuer)

// WithIssuerClock overrides the time source used for iat and exp.
func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

func WithIssuerMetrics(m *metrics.Metrics) IssuerOption {
	return func(i *Issuer) { i.metrics = m }
}

func NewIssuer(keys KeySource, refreshSecret string, issuer string, opts ...IssuerOption) *Issuer {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	i := &Issuer{
		keys:          keys,
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
		now:           time.Now,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// IssueAccessToken signs {sub, role, iss, iat, exp} with the active RSA key.
func (i *Issuer) IssueAccessToken(p model.Principal) (string, error) {
	if i.keys == nil {
		return "", fmt.Errorf("%w: %w", model.ErrConfig, errNoKeySource)
	}
	key, err := i.keys.SigningKey()
	if err != nil {
		return "", err
	}

	now := i.now()
	claims := Claims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = key.ID

	signed, err := tok.SignedString(key.Private)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	i.metrics.TokenIssued("access")
	return signed, nil
}

// IssueRefreshToken signs {sub, role, jti, iss, iat, exp} with the refresh
// secret. jti is the session id.
func (i *Issuer) IssueRefreshToken(p model.Principal, sessionID int64) (string, error) {
	if len(i.refreshSecret) == 0 {
		return "", fmt.Errorf("%w: refresh token secret is not configured", model.ErrConfig)
	}

	now := i.now()
	claims := Claims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        strconv.FormatInt(sessionID, 10),
			Subject:   p.Subject(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(RefreshTokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}

	i.metrics.TokenIssued("refresh")
	return signed, nil
}
