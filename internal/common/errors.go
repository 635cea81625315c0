// Package common defines shared sentinel errors and small helpers used across
// cityfix layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	// Service-level errors.
	ErrorInternal  = errors.New("internal error")
	ErrValidation  = errors.New("validation error")
	ErrUnavailable = errors.New("service unavailable")

	// Auth errors. ErrUnauthenticated is the single outcome of any token
	// failure (malformed, tampered, expired, unknown subject).
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("forbidden")
)
