package handler

import (
	"context"
	"net/http"

	"auth-service/internal/middleware"
	"auth-service/internal/model"
)

type userAdmin interface {
	Create(ctx context.Context, actor model.Principal, req model.CreateUserRequest) (model.PublicUser, error)
	Get(ctx context.Context, id int64) (model.PublicUser, error)
	List(ctx context.Context) ([]model.PublicUser, error)
	Update(ctx context.Context, actor model.Principal, id int64, req model.UpdateUserRequest) (model.PublicUser, error)
	Delete(ctx context.Context, actor model.Principal, id int64) error
}

type UserHandler struct {
	service userAdmin
}

func NewUserHandler(service userAdmin) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CreateUserRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	actor, _ := middleware.PrincipalFromContext(r.Context())
	user, err := h.service.Create(r.Context(), actor, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, nil)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.UserList{Users: users}, nil)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.UpdateUserRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	actor, _ := middleware.PrincipalFromContext(r.Context())
	user, err := h.service.Update(r.Context(), actor, id, payload)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	actor, _ := middleware.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		writeLookupError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
