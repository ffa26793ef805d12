package memory

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/model"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createUser(t *testing.T, s *Store, email string) model.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), model.User{
		Email:        email,
		Username:     strings.Split(email, "@")[0],
		PasswordHash: "hash-" + email,
	})
	require.NoError(t, err)
	return u
}

func TestCreateUser(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, model.User{Email: " alice@x.com ", Username: "alice", PasswordHash: "h"})
	assert.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice@x.com", u.Email)
	assert.NotZero(t, u.CreatedAt)

	// Same email, different case.
	_, err = s.CreateUser(ctx, model.User{Email: "ALICE@x.com", Username: "alice2", PasswordHash: "h"})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.CreateUser(ctx, model.User{Username: "nobody", PasswordHash: "h"})
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "email_required"))

	_, err = s.CreateUser(ctx, model.User{Email: "bob@x.com"})
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "password_hash_required"))
}

func TestGetUser(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := createUser(t, s, "alice@x.com")

	got, err := s.GetUserByEmail(ctx, "Alice@X.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", got.Email)

	_, err = s.GetUserByEmail(ctx, "bob@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateUserPassword(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := createUser(t, s, "alice@x.com")

	require.NoError(t, s.UpdateUserPassword(ctx, u.ID, "new-hash"))
	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, s.UpdateUserPassword(ctx, "missing", "x"), store.ErrNotFound)
}

func TestSessions(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := createUser(t, s, "alice@x.com")
	exp := time.Now().Add(24 * time.Hour)

	// Concurrent sessions per user are allowed.
	for i := 0; i < 2; i++ {
		sess, err := s.CreateSession(ctx, model.Session{UserID: u.ID, Token: "tok", ExpiresAt: exp})
		require.NoError(t, err)
		assert.NotEmpty(t, sess.ID)
	}

	list, err := s.ListSessionsByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = s.CreateSession(ctx, model.Session{UserID: "missing", Token: "tok", ExpiresAt: exp})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPasswordReset_FindScopedAndExpiry(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	alice := createUser(t, s, "alice@x.com")
	bob := createUser(t, s, "bob@x.com")

	now := time.Now().UTC()
	_, err := s.CreatePasswordReset(ctx, model.PasswordReset{UserID: alice.ID, Code: "123456", ExpiresAt: now.Add(10 * time.Minute)})
	require.NoError(t, err)

	got, err := s.FindPasswordReset(ctx, alice.ID, "123456", now)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.UserID)

	// Codes are scoped to their owner.
	_, err = s.FindPasswordReset(ctx, bob.ID, "123456", now)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// At the expiry instant the code is already unusable.
	_, err = s.FindPasswordReset(ctx, alice.ID, "123456", now.Add(10*time.Minute))
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.DeletePasswordReset(ctx, alice.ID, "123456"))
	assert.ErrorIs(t, s.DeletePasswordReset(ctx, alice.ID, "123456"), store.ErrNotFound)
}

func TestPasswordReset_ReplacesPrior(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := createUser(t, s, "alice@x.com")
	now := time.Now().UTC()

	_, err := s.CreatePasswordReset(ctx, model.PasswordReset{UserID: u.ID, Code: "111111", ExpiresAt: now.Add(10 * time.Minute)})
	require.NoError(t, err)
	_, err = s.CreatePasswordReset(ctx, model.PasswordReset{UserID: u.ID, Code: "222222", ExpiresAt: now.Add(10 * time.Minute)})
	require.NoError(t, err)

	_, err = s.FindPasswordReset(ctx, u.ID, "111111", now)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.FindPasswordReset(ctx, u.ID, "222222", now)
	assert.NoError(t, err)

	_, err = s.CreatePasswordReset(ctx, model.PasswordReset{UserID: "missing", Code: "333333", ExpiresAt: now})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConsumePasswordReset(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := createUser(t, s, "alice@x.com")
	now := time.Now().UTC()

	_, err := s.CreatePasswordReset(ctx, model.PasswordReset{UserID: u.ID, Code: "123456", ExpiresAt: now.Add(10 * time.Minute)})
	require.NoError(t, err)

	req := store.ConsumeResetRequest{UserID: u.ID, Code: "123456", PasswordHash: "new-hash", Now: now}
	require.NoError(t, s.ConsumePasswordReset(ctx, req))

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	req.PasswordHash = "other-hash"
	assert.ErrorIs(t, s.ConsumePasswordReset(ctx, req), store.ErrNotFound)

	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
}

func TestConsumePasswordReset_Expired(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := createUser(t, s, "alice@x.com")
	now := time.Now().UTC()

	_, err := s.CreatePasswordReset(ctx, model.PasswordReset{UserID: u.ID, Code: "123456", ExpiresAt: now.Add(10 * time.Minute)})
	require.NoError(t, err)

	err = s.ConsumePasswordReset(ctx, store.ConsumeResetRequest{
		UserID: u.ID, Code: "123456", PasswordHash: "new-hash", Now: now.Add(11 * time.Minute),
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-alice@x.com", got.PasswordHash)
}

func TestConsumePasswordReset_ConcurrentSingleWinner(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := createUser(t, s, "alice@x.com")
	now := time.Now().UTC()

	_, err := s.CreatePasswordReset(ctx, model.PasswordReset{UserID: u.ID, Code: "654321", ExpiresAt: now.Add(10 * time.Minute)})
	require.NoError(t, err)

	var wins, misses atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.ConsumePasswordReset(ctx, store.ConsumeResetRequest{
				UserID: u.ID, Code: "654321", PasswordHash: "h", Now: now,
			})
			if err == nil {
				wins.Add(1)
			} else if err == store.ErrNotFound {
				misses.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(15), misses.Load())
}

func TestPurgeExpired(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	alice := createUser(t, s, "alice@x.com")
	bob := createUser(t, s, "bob@x.com")
	now := time.Now().UTC()

	_, err := s.CreatePasswordReset(ctx, model.PasswordReset{UserID: alice.ID, Code: "111111", ExpiresAt: now.Add(-time.Minute)})
	require.NoError(t, err)
	_, err = s.CreatePasswordReset(ctx, model.PasswordReset{UserID: bob.ID, Code: "222222", ExpiresAt: now.Add(time.Minute)})
	require.NoError(t, err)
	_, err = s.CreateSession(ctx, model.Session{UserID: alice.ID, Token: "old", ExpiresAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = s.CreateSession(ctx, model.Session{UserID: alice.ID, Token: "new", ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)

	res, err := s.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PasswordResets)
	assert.Equal(t, 1, res.Sessions)

	_, err = s.FindPasswordReset(ctx, bob.ID, "222222", now)
	assert.NoError(t, err)
	list, err := s.ListSessionsByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
