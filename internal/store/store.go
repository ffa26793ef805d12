package store

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/model"
)

var (
	ErrNotFound = errors.New("not_found")
	ErrConflict = errors.New("conflict")
)

// ConsumeResetRequest names a reset code to redeem and the password hash to
// install when it is valid at Now.
type ConsumeResetRequest struct {
	UserID       string
	Code         string
	PasswordHash string
	Now          time.Time
}

// PurgeResult counts rows removed by PurgeExpired.
type PurgeResult struct {
	PasswordResets int
	Sessions       int
}

// Store is the sole writer of users, sessions and password reset requests.
// Email comparisons are case-insensitive.
type Store interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUserPassword(ctx context.Context, userID, passwordHash string) error

	CreateSession(ctx context.Context, s model.Session) (model.Session, error)
	ListSessionsByUser(ctx context.Context, userID string) ([]model.Session, error)

	// CreatePasswordReset stores p and removes any other requests of the same
	// user, so at most one code per user is outstanding.
	CreatePasswordReset(ctx context.Context, p model.PasswordReset) (model.PasswordReset, error)
	// FindPasswordReset returns the request matching (userID, code) that has
	// not expired at now.
	FindPasswordReset(ctx context.Context, userID, code string, now time.Time) (*model.PasswordReset, error)
	DeletePasswordReset(ctx context.Context, userID, code string) error
	// ConsumePasswordReset atomically validates the code, replaces the user's
	// password hash and deletes the request. Concurrent callers with the same
	// code observe exactly one success; the rest get ErrNotFound.
	ConsumePasswordReset(ctx context.Context, req ConsumeResetRequest) error

	// PurgeExpired deletes reset requests and sessions that expired before
	// the given time.
	PurgeExpired(ctx context.Context, before time.Time) (PurgeResult, error)
}
