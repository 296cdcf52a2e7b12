package model

import "errors"

var (
	// Key material or issuer settings are missing or unusable.
	ErrConfig = errors.New("configuration error")

	// Token related errors
	ErrAuthentication = errors.New("invalid token")
	ErrAuthorization  = errors.New("insufficient permissions")

	// User related errors
	ErrInvalidCredentials = errors.New("email or password does not match")
	ErrDuplicateEmail     = errors.New("email is already exist")

	// Lookup errors. The specific variants wrap ErrNotFound.
	ErrNotFound        = errors.New("not found")
	ErrUserNotFound    = wrapNotFound("user not found")
	ErrSessionNotFound = wrapNotFound("session not found")
	ErrTenantNotFound  = wrapNotFound("tenant not found")

	// Persistence failed. The cause is wrapped alongside.
	ErrStorage = errors.New("failed to store data in database")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)

type notFoundError struct {
	msg string
}

func wrapNotFound(msg string) error { return &notFoundError{msg: msg} }

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Unwrap() error { return ErrNotFound }
