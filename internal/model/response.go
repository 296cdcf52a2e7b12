package model

// APIResponse is the envelope every JSON endpoint answers with, except the
// JWKS document. Auth flows put an IDResponse in Data; gate rejections and
// service errors set Error instead.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

// APIError carries a stable code such as UNAUTHORIZED or DUPLICATE_EMAIL.
// Details names the offending field for validation errors.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Meta paginates list endpoints such as GET /audit.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
