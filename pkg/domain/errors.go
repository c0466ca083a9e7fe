package domain

import (
	"errors"

	"github.com/tendant/simple-idm-mfa/pkg/totp"
)

// Authentication errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// Validation errors
var (
	ErrInvalidUsername = errors.New("invalid username format")
	ErrWeakPassword    = errors.New("password does not meet requirements")
)

// MFA errors
var (
	// ErrInvalidSessionState means the session phase does not permit the
	// operation. Callers send the user back to login.
	ErrInvalidSessionState = errors.New("invalid session state")

	// ErrMFANotConfigured means a challenge was requested for an account whose
	// MFA record is disabled or has no secret. It indicates a storage fault.
	ErrMFANotConfigured = errors.New("MFA is not configured for this account")

	ErrInvalidMFACode = errors.New("invalid MFA code")

	// ErrEncoding is returned when the enrollment QR image cannot be rendered.
	ErrEncoding = totp.ErrEncoding
)
