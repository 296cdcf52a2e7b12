package handler

import (
	"context"
	"net/http"

	"auth-service/internal/middleware"
	"auth-service/internal/model"
)

type tenantDirectory interface {
	Create(ctx context.Context, actor model.Principal, req model.CreateTenantRequest) (model.Tenant, error)
	Get(ctx context.Context, id int64) (model.Tenant, error)
	List(ctx context.Context) ([]model.Tenant, error)
}

type TenantHandler struct {
	service tenantDirectory
}

func NewTenantHandler(service tenantDirectory) *TenantHandler {
	return &TenantHandler{service: service}
}

func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CreateTenantRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	actor, _ := middleware.PrincipalFromContext(r.Context())
	tenant, err := h.service.Create(r.Context(), actor, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, tenant, nil)
}

func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.TenantList{Tenants: tenants}, nil)
}

func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tenant, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tenant, nil)
}
