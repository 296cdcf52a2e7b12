package handler

import (
	"net/http"
	"time"

	"auth-service/internal/middleware"
	"auth-service/internal/model"
	"auth-service/internal/token"
)

// CookieConfig controls the attributes of the token cookies.
type CookieConfig struct {
	Secure bool
	Domain string
}

func (c CookieConfig) setTokens(w http.ResponseWriter, issued model.IssuedSession) {
	http.SetCookie(w, c.cookie(middleware.AccessTokenCookie, issued.AccessToken, token.AccessTokenTTL))
	http.SetCookie(w, c.cookie(middleware.RefreshTokenCookie, issued.RefreshToken, token.RefreshTokenTTL))
}

func (c CookieConfig) clearTokens(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		cookie := c.cookie(name, "", 0)
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

func (c CookieConfig) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
