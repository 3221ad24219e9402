package service

import (
	"errors"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/access"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so callers can't tell which.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidCode        = errors.New("invalid authenticator code")
	ErrDuplicateEmail     = errors.New("an account with this email already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserNotFound       = errors.New("user not found")

	ErrNotEnrolled       = errors.New("authenticator not set up for this user")
	ErrChallengeRequired = errors.New("password step required before authenticator code")
	ErrInvalidEnrollment = errors.New("enrollment expired or invalid, start again")
	ErrAlreadyEnrolled   = errors.New("authenticator already set up")

	ErrNotAuthorized = access.ErrNotAuthorized
)
