package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"auth-service/internal/model"
)

type TenantRepository struct {
	db DBTX
}

func NewTenantRepository(db DBTX) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(ctx context.Context, t model.Tenant) (model.Tenant, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO tenants (name, address) VALUES ($1, $2) RETURNING id, created_at`,
		t.Name, t.Address).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return model.Tenant{}, fmt.Errorf("%w: create tenant: %w", model.ErrStorage, err)
	}
	return t, nil
}

func (r *TenantRepository) FindByID(ctx context.Context, id int64) (model.Tenant, error) {
	var t model.Tenant
	err := r.db.QueryRow(ctx,
		`SELECT id, name, address, created_at FROM tenants WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Address, &t.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Tenant{}, model.ErrTenantNotFound
	}
	if err != nil {
		return model.Tenant{}, fmt.Errorf("%w: find tenant: %w", model.ErrStorage, err)
	}
	return t, nil
}

func (r *TenantRepository) List(ctx context.Context) ([]model.Tenant, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, address, created_at FROM tenants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list tenants: %w", model.ErrStorage, err)
	}

	tenants, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Tenant, error) {
		var t model.Tenant
		err := row.Scan(&t.ID, &t.Name, &t.Address, &t.CreatedAt)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan tenants: %w", model.ErrStorage, err)
	}
	return tenants, nil
}
