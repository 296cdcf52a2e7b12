package model

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	TenantID  *int64 `json:"tenantId,omitempty"`
}

type UpdateUserRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Role      *string `json:"role,omitempty"`
}

type CreateTenantRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// IDResponse is the body of register, login, refresh and create endpoints.
type IDResponse struct {
	ID int64 `json:"id"`
}
