package service

import (
	"context"
	"time"

	"auth-service/internal/model"
)

type UserStore interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	Update(ctx context.Context, id int64, upd model.UserUpdate) (model.User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, userID int64, expiresAt time.Time) (model.Session, error)
	FindByID(ctx context.Context, id int64) (model.Session, error)
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type TenantStore interface {
	Create(ctx context.Context, t model.Tenant) (model.Tenant, error)
	FindByID(ctx context.Context, id int64) (model.Tenant, error)
	List(ctx context.Context) ([]model.Tenant, error)
}

type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

type tokenIssuer interface {
	IssueAccessToken(p model.Principal) (string, error)
	IssueRefreshToken(p model.Principal, sessionID int64) (string, error)
}
