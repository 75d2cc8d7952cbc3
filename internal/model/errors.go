package model

import "errors"

var (
	// Credential exchange errors
	ErrInvalidClient        = errors.New("invalid client")
	ErrInvalidGrant         = errors.New("invalid grant")
	ErrInvalidScope         = errors.New("invalid scope")
	ErrUnsupportedGrantType = errors.New("unsupported grant type")

	// Token errors
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Catalog errors
	ErrUserNotFound       = errors.New("user not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrStoreUnavailable marks failures reaching the backing store, as opposed
	// to a lookup that ran and found nothing.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
