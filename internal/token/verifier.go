package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"auth-service/internal/model"
)

// Verifier validates inbound tokens. Every rejection surfaces as
// model.ErrAuthentication; the specific cause is only logged.
type Verifier struct {
	resolver      KeyResolver
	refreshSecret []byte
	issuer        string
	now           func() time.Time
}

type VerifierOption func(*Verifier)

// WithVerifierClock overrides the time used for expiry checks.
func WithVerifierClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.now = now }
}

func NewVerifier(resolver KeyResolver, refreshSecret string, issuer string, opts ...VerifierOption) *Verifier {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	v := &Verifier{
		resolver:      resolver,
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
		now:           time.Now,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

func (v *Verifier) parserOptions(method string) []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithValidMethods([]string{method}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
}

// VerifyAccessToken checks the RS256 signature against the resolved public
// key plus expiry and issuer.
func (v *Verifier) VerifyAccessToken(ctx context.Context, raw string) (model.Principal, error) {
	if v.resolver == nil {
		return model.Principal{}, fmt.Errorf("%w: key resolver is not configured", model.ErrConfig)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.resolver.ResolveKey(ctx, kid)
	}, v.parserOptions(jwt.SigningMethodRS256.Alg())...)
	if err != nil {
		return model.Principal{}, v.reject("access", err)
	}

	p, ok := claims.principal()
	if !ok {
		return model.Principal{}, v.reject("access", errors.New("malformed subject or role"))
	}
	return p, nil
}

// VerifyRefreshToken checks the HS256 signature, expiry and issuer and
// returns the principal with SessionID taken from jti.
func (v *Verifier) VerifyRefreshToken(_ context.Context, raw string) (model.Principal, error) {
	if len(v.refreshSecret) == 0 {
		return model.Principal{}, fmt.Errorf("%w: refresh token secret is not configured", model.ErrConfig)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.refreshSecret, nil
	}, v.parserOptions(jwt.SigningMethodHS256.Alg())...)
	if err != nil {
		return model.Principal{}, v.reject("refresh", err)
	}

	p, ok := claims.principal()
	if !ok {
		return model.Principal{}, v.reject("refresh", errors.New("malformed subject or role"))
	}

	sessionID, err := strconv.ParseInt(claims.ID, 10, 64)
	if err != nil || sessionID <= 0 {
		return model.Principal{}, v.reject("refresh", fmt.Errorf("malformed jti %q", claims.ID))
	}
	p.SessionID = sessionID

	return p, nil
}

func (v *Verifier) reject(kind string, cause error) error {
	// Missing key material is an operator problem, not a client one.
	if errors.Is(cause, model.ErrConfig) {
		return cause
	}
	slog.Debug("token rejected", "kind", kind, "reason", cause.Error())
	return model.ErrAuthentication
}
