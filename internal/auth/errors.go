package auth

import "errors"

// Registration input errors. Messages are safe to show to the user verbatim.
var (
	ErrMissingField   = errors.New("email and password are required")
	ErrWeakPassword   = errors.New("password must be at least 6 characters long")
	ErrInvalidRole    = errors.New("invalid role specified")
	ErrDuplicateEmail = errors.New("user with this email already exists")
)

// Authentication errors. Callers facing end users should collapse both into
// one generic message.
var (
	ErrUserNotFound       = errors.New("no user found with this email")
	ErrInvalidCredentials = errors.New("invalid password")
)

// ErrInvalidToken is returned for any session token that fails decoding:
// bad signature, wrong algorithm, expired, or malformed.
var ErrInvalidToken = errors.New("invalid session token")

// ErrMissingSecret is returned when a TokenManager is built without a secret.
var ErrMissingSecret = errors.New("token signing secret is required")
