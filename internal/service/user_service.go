package service

import (
	"context"
	"strings"

	"auth-service/internal/event"
	"auth-service/internal/model"
	"auth-service/pkg/apierror"
)

// UserService backs the admin-only user endpoints.
type UserService struct {
	users    UserStore
	sessions SessionStore
	tenants  TenantStore
	creds    *CredentialService
	bus      event.Bus
}

func NewUserService(users UserStore, sessions SessionStore, tenants TenantStore, creds *CredentialService, bus event.Bus) *UserService {
	return &UserService{users: users, sessions: sessions, tenants: tenants, creds: creds, bus: bus}
}

// Create adds a MANAGER, optionally attached to a tenant.
func (s *UserService) Create(ctx context.Context, actor model.Principal, req model.CreateUserRequest) (model.PublicUser, error) {
	user, err := newUser(req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		return model.PublicUser{}, err
	}
	user.Role = model.RoleManager

	if req.TenantID != nil {
		if _, err := s.tenants.FindByID(ctx, *req.TenantID); err != nil {
			return model.PublicUser{}, err
		}
		user.TenantID = req.TenantID
	}

	created, err := createUser(ctx, s.users, s.creds, user, req.Password)
	if err != nil {
		return model.PublicUser{}, err
	}

	s.publish(event.TypeUserCreated, actor, map[string]any{"user_id": created.ID})
	return created.Public(), nil
}

func (s *UserService) Get(ctx context.Context, id int64) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *UserService) List(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (s *UserService) Update(ctx context.Context, actor model.Principal, id int64, req model.UpdateUserRequest) (model.PublicUser, error) {
	var upd model.UserUpdate

	if req.FirstName != nil {
		v := strings.TrimSpace(*req.FirstName)
		if v == "" {
			return model.PublicUser{}, apierror.BadRequest("first name cannot be empty", "firstName")
		}
		upd.FirstName = &v
	}
	if req.LastName != nil {
		v := strings.TrimSpace(*req.LastName)
		if v == "" {
			return model.PublicUser{}, apierror.BadRequest("last name cannot be empty", "lastName")
		}
		upd.LastName = &v
	}
	if req.Role != nil {
		role, err := model.ParseRole(*req.Role)
		if err != nil {
			return model.PublicUser{}, apierror.BadRequest("invalid role", *req.Role)
		}
		upd.Role = &role
	}

	user, err := s.users.Update(ctx, id, upd)
	if err != nil {
		return model.PublicUser{}, err
	}

	s.publish(event.TypeUserUpdated, actor, map[string]any{"user_id": id})
	return user.Public(), nil
}

// Delete removes the user and every session it holds.
func (s *UserService) Delete(ctx context.Context, actor model.Principal, id int64) error {
	if actor.SubjectID == id {
		return apierror.BadRequest("cannot delete your own account", "")
	}

	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	if _, err := s.sessions.DeleteByUser(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(event.TypeUserDeleted, actor, map[string]any{"user_id": id})
	return nil
}

func (s *UserService) publish(t event.Type, actor model.Principal, payload map[string]any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.New(t, actor.SubjectID, actor.Role, payload))
}
