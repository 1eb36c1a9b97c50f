// Package common defines shared constants and sentinel errors used across
// vaultsync layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorInactiveUser = errors.New("inactive user")

	// Validation / item-specific errors.
	ErrorValidation       = errors.New("validation error")
	ErrInvalidPath        = errors.New("invalid path")
	ErrAttachmentTooLarge = errors.New("attachment too large")
	ErrInvalidContent     = errors.New("invalid content encoding")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
