package model

import (
	"strings"
	"time"
)

// Role is the closed set of roles a principal can hold.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleCustomer, RoleManager, RoleAdmin}

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleManager, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole normalizes case and whitespace and rejects unknown roles.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.IsValid() {
		return "", ErrInvalidInput
	}
	return role, nil
}

type User struct {
	ID             int64
	FirstName      string
	LastName       string
	Email          string
	PasswordDigest string
	Role           Role
	TenantID       *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PublicUser is the user as returned to clients. It never carries the digest.
type PublicUser struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	TenantID  *int64    `json:"tenantId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		TenantID:  u.TenantID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type UserList struct {
	Users []PublicUser `json:"users"`
}

// UserUpdate holds the mutable user fields. Nil fields are left unchanged.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Role      *Role
}
