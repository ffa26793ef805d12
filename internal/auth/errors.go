package auth

import "errors"

// Domain outcomes. Anything else returned by Service is an internal failure.
var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOrExpired   = errors.New("invalid or expired otp")
	ErrConflict           = errors.New("user already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateLimited        = errors.New("too many requests")
	ErrInvalidToken       = errors.New("invalid token")
)

// IsDomainError reports whether err is one of the caller-facing outcomes
// above rather than an internal failure.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		ErrInvalidCredentials,
		ErrInvalidOrExpired,
		ErrConflict,
		ErrInvalidInput,
		ErrRateLimited,
		ErrInvalidToken,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
