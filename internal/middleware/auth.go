package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"auth-service/internal/metrics"
	"auth-service/internal/model"
)

// Cookie names the token pair travels in.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

type tokenVerifier interface {
	VerifyAccessToken(ctx context.Context, raw string) (model.Principal, error)
	VerifyRefreshToken(ctx context.Context, raw string) (model.Principal, error)
}

type sessionValidator interface {
	ValidateSession(ctx context.Context, p model.Principal) error
}

type contextKey string

const (
	principalContextKey        contextKey = "principal"
	refreshPrincipalContextKey contextKey = "refresh_principal"
)

type AuthMiddleware struct {
	verifier tokenVerifier
	sessions sessionValidator
	metrics  *metrics.Metrics
}

func NewAuthMiddleware(verifier tokenVerifier, sessions sessionValidator, m *metrics.Metrics) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, sessions: sessions, metrics: m}
}

// Authenticate verifies the access token cookie and attaches its principal.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := cookieValue(r, AccessTokenCookie)
		if raw == "" {
			m.reject(w, "access", model.ErrAuthentication)
			return
		}

		p, err := m.verifier.VerifyAccessToken(r.Context(), raw)
		if err != nil {
			m.reject(w, "access", err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireRefreshToken verifies the refresh token cookie and attaches its
// principal. The session store is not consulted.
func (m *AuthMiddleware) RequireRefreshToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := m.verifyRefresh(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(WithRefreshPrincipal(r.Context(), p)))
	})
}

// RequireRefreshSession is RequireRefreshToken plus a check that the session
// it names is still live.
func (m *AuthMiddleware) RequireRefreshSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := m.verifyRefresh(w, r)
		if !ok {
			return
		}

		if err := m.sessions.ValidateSession(r.Context(), p); err != nil {
			m.reject(w, "refresh", err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithRefreshPrincipal(r.Context(), p)))
	})
}

func (m *AuthMiddleware) verifyRefresh(w http.ResponseWriter, r *http.Request) (model.Principal, bool) {
	raw := cookieValue(r, RefreshTokenCookie)
	if raw == "" {
		m.reject(w, "refresh", model.ErrAuthentication)
		return model.Principal{}, false
	}

	p, err := m.verifier.VerifyRefreshToken(r.Context(), raw)
	if err != nil {
		m.reject(w, "refresh", err)
		return model.Principal{}, false
	}
	return p, true
}

// RequireRoles lets the request through only when the authenticated role is
// in the allow-list. A request without a principal is refused.
func (m *AuthMiddleware) RequireRoles(allowedRoles ...model.Role) func(http.Handler) http.Handler {
	roleSet := make(map[model.Role]struct{}, len(allowedRoles))
	for _, role := range allowedRoles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				m.reject(w, "role", model.ErrAuthorization)
				return
			}

			if _, allowed := roleSet[p.Role]; !allowed {
				m.reject(w, "role", model.ErrAuthorization)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(model.Principal)
	return p, ok
}

func RefreshPrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(refreshPrincipalContextKey).(model.Principal)
	return p, ok
}

// WithPrincipal returns ctx carrying p as the authenticated principal.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// WithRefreshPrincipal returns ctx carrying p as the verified refresh principal.
func WithRefreshPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, refreshPrincipalContextKey, p)
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, gate string, err error) {
	m.metrics.AuthFailure(gate)

	switch {
	case errors.Is(err, model.ErrConfig):
		slog.Error("auth gate misconfigured", "gate", gate, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "CONFIG_ERROR", "authentication is not configured")
	case errors.Is(err, model.ErrAuthorization):
		writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
	case errors.Is(err, model.ErrAuthentication):
		writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
	default:
		slog.Error("auth gate failed", "gate", gate, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to validate session")
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
