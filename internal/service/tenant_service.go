package service

import (
	"context"
	"strings"

	"auth-service/internal/event"
	"auth-service/internal/model"
	"auth-service/pkg/apierror"
)

type TenantService struct {
	tenants TenantStore
	bus     event.Bus
}

func NewTenantService(tenants TenantStore, bus event.Bus) *TenantService {
	return &TenantService{tenants: tenants, bus: bus}
}

func (s *TenantService) Create(ctx context.Context, actor model.Principal, req model.CreateTenantRequest) (model.Tenant, error) {
	t := model.Tenant{Name: strings.TrimSpace(req.Name), Address: strings.TrimSpace(req.Address)}
	if t.Name == "" {
		return model.Tenant{}, apierror.BadRequest("tenant name is required", "name")
	}
	if t.Address == "" {
		return model.Tenant{}, apierror.BadRequest("tenant address is required", "address")
	}

	created, err := s.tenants.Create(ctx, t)
	if err != nil {
		return model.Tenant{}, err
	}

	if s.bus != nil {
		s.bus.Publish(event.New(event.TypeTenantCreated, actor.SubjectID, actor.Role, map[string]any{"tenant_id": created.ID}))
	}
	return created, nil
}

func (s *TenantService) Get(ctx context.Context, id int64) (model.Tenant, error) {
	return s.tenants.FindByID(ctx, id)
}

func (s *TenantService) List(ctx context.Context) ([]model.Tenant, error) {
	return s.tenants.List(ctx)
}
