package handler

import (
	"context"
	"net/http"

	"auth-service/internal/middleware"
	"auth-service/internal/model"
)

type authFlows interface {
	Register(ctx context.Context, req model.RegisterRequest) (model.IssuedSession, error)
	Login(ctx context.Context, email string, password string) (model.IssuedSession, error)
	Self(ctx context.Context, p model.Principal) (model.PublicUser, error)
	Refresh(ctx context.Context, access model.Principal, refresh model.Principal) (model.IssuedSession, error)
	Logout(ctx context.Context, refresh model.Principal) error
}

type AuthHandler struct {
	service authFlows
	cookies CookieConfig
}

func NewAuthHandler(service authFlows, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{service: service, cookies: cookies}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	issued, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.setTokens(w, issued)
	writeSuccess(w, http.StatusCreated, model.IDResponse{ID: issued.User.ID}, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	issued, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.setTokens(w, issued)
	writeSuccess(w, http.StatusOK, model.IDResponse{ID: issued.User.ID}, nil)
}

func (h *AuthHandler) Self(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrAuthentication)
		return
	}

	user, err := h.service.Self(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

// Refresh rotates the session named by the refresh cookie and replaces both
// cookies.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	access, okAccess := middleware.PrincipalFromContext(r.Context())
	refresh, okRefresh := middleware.RefreshPrincipalFromContext(r.Context())
	if !okAccess || !okRefresh {
		writeError(w, model.ErrAuthentication)
		return
	}

	issued, err := h.service.Refresh(r.Context(), access, refresh)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.setTokens(w, issued)
	writeSuccess(w, http.StatusOK, model.IDResponse{ID: issued.User.ID}, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	refresh, ok := middleware.RefreshPrincipalFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrAuthentication)
		return
	}

	if err := h.service.Logout(r.Context(), refresh); err != nil {
		writeError(w, err)
		return
	}

	h.cookies.clearTokens(w)
	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true}, nil)
}
