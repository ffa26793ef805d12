package auth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/model"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/store"
)

const (
	minPasswordLen = 6
	resetSubject   = "Password Reset OTP"
)

// Notifier delivers a message out of band. Any error is treated as an
// internal failure and is not retried.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Limiter throttles repeated attempts for a key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type allowAll struct{}

func (allowAll) Allow(context.Context, string) (bool, error) { return true, nil }

type Config struct {
	Store    store.Store
	Hasher   *Hasher
	Tokens   *TokenIssuer
	Notifier Notifier
	// Limiter is optional; nil allows every request.
	Limiter  Limiter
	ResetTTL time.Duration
	Logger   *slog.Logger
	// Now is optional; nil uses time.Now.
	Now func() time.Time
}

// Service implements registration, login, token verification and the
// password reset protocol on top of a Store.
type Service struct {
	store    store.Store
	hasher   *Hasher
	tokens   *TokenIssuer
	notifier Notifier
	limiter  Limiter
	resetTTL time.Duration
	log      *slog.Logger
	now      func() time.Time

	// dummyHash is compared against when the email is unknown so both login
	// failures cost one bcrypt comparison.
	dummyHash string
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil || cfg.Hasher == nil || cfg.Tokens == nil || cfg.Notifier == nil {
		return nil, errors.New("auth: store, hasher, tokens and notifier are required")
	}
	if cfg.ResetTTL <= 0 {
		return nil, errors.New("auth: reset ttl must be positive")
	}
	s := &Service{
		store:    cfg.Store,
		hasher:   cfg.Hasher,
		tokens:   cfg.Tokens,
		notifier: cfg.Notifier,
		limiter:  cfg.Limiter,
		resetTTL: cfg.ResetTTL,
		log:      cfg.Logger,
		now:      cfg.Now,
	}
	if s.limiter == nil {
		s.limiter = allowAll{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.tokens.now = s.now

	dummy, err := s.hasher.Hash("no-such-user-password")
	if err != nil {
		return nil, fmt.Errorf("auth: prepare dummy hash: %w", err)
	}
	s.dummyHash = dummy
	return s, nil
}

// Token is the result of a successful login.
type Token struct {
	Value     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, email, password, username string) (model.User, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)

	if err := validateInput(registerInput{Email: email, Username: username, Password: password}); err != nil {
		return model.User{}, err
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return model.User{}, ErrConflict
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.store.CreateUser(ctx, model.User{Email: email, Username: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return model.User{}, ErrConflict
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.InfoContext(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.hasher.Compare(s.dummyHash, password)
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return Token{}, ErrInvalidCredentials
	}

	value, exp, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return Token{}, fmt.Errorf("issue token: %w", err)
	}

	if _, err := s.store.CreateSession(ctx, model.Session{UserID: u.ID, Token: value, ExpiresAt: exp}); err != nil {
		return Token{}, fmt.Errorf("create session: %w", err)
	}

	s.log.InfoContext(ctx, "user logged in", "user_id", u.ID)
	return Token{Value: value, ExpiresAt: exp, User: *u}, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	u, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

// RequestReset issues a fresh code for the user with email, replacing any
// outstanding one, and mails it.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validateInput(requestResetInput{Email: email}); err != nil {
		return err
	}

	ok, err := s.limiter.Allow(ctx, "forgot-password:"+email)
	if err != nil {
		// Fail open: the limiter protects the mailer, it does not gate auth.
		s.log.WarnContext(ctx, "reset rate limiter unavailable", "err", err)
	} else if !ok {
		return ErrRateLimited
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	code, err := GenerateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	now := s.now().UTC()
	req, err := s.store.CreatePasswordReset(ctx, model.PasswordReset{
		UserID:    u.ID,
		Code:      code,
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}

	if err := s.notifier.Send(ctx, u.Email, resetSubject, resetBody(code, s.resetTTL)); err != nil {
		return fmt.Errorf("send reset code: %w", err)
	}

	s.log.InfoContext(ctx, "password reset requested", "user_id", u.ID, "expires_at", req.ExpiresAt)
	return nil
}

// ResetPassword redeems code for the user with email and installs
// newPassword. The code is single use.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	code = strings.TrimSpace(code)
	if !ValidCode(code) {
		return ErrInvalidOrExpired
	}
	if err := validateInput(resetPasswordInput{Password: newPassword}); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.store.ConsumePasswordReset(ctx, store.ConsumeResetRequest{
		UserID:       u.ID,
		Code:         code,
		PasswordHash: hash,
		Now:          s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("consume password reset: %w", err)
	}

	s.log.InfoContext(ctx, "password reset completed", "user_id", u.ID)
	return nil
}

// PurgeExpired removes reset requests and sessions that are past expiry.
func (s *Service) PurgeExpired(ctx context.Context) (store.PurgeResult, error) {
	return s.store.PurgeExpired(ctx, s.now().UTC())
}

func resetBody(code string, ttl time.Duration) string {
	return fmt.Sprintf("<h2>Your OTP: %s</h2><p>This OTP will expire in %d minutes.</p>",
		html.EscapeString(code), int(ttl/time.Minute))
}
