package services

import "errors"

// Validation failures (400).
var (
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrMissingField       = errors.New("missing required field")
	ErrInvalidUpload      = errors.New("invalid upload")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

var ErrAccountExists = errors.New("an account with this email already exists") // 409

// Authentication and authorization failures (401, 403).
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingSession     = errors.New("authentication required")
	ErrInvalidSession     = errors.New("invalid session")
	ErrForbiddenRole      = errors.New("forbidden for account type")
)

var ErrNotFound = errors.New("not found") // 404
