package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	ti, err := NewTokenIssuer("test-secret", 24*time.Hour)
	require.NoError(t, err)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ti.now = func() time.Time { return now }

	tok, exp, err := ti.Issue("user-1", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), exp)

	claims, err := ti.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, exp, claims.ExpiresAt.Time.UTC())
	assert.NotEmpty(t, claims.ID)
}

func TestTokenIssuer_Expired(t *testing.T) {
	ti, err := NewTokenIssuer("test-secret", 24*time.Hour)
	require.NoError(t, err)

	now := time.Now()
	ti.now = func() time.Time { return now }
	tok, _, err := ti.Issue("user-1", "alice@x.com")
	require.NoError(t, err)

	ti.now = func() time.Time { return now.Add(24*time.Hour + time.Minute) }
	_, err = ti.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsForeignSignature(t *testing.T) {
	a, err := NewTokenIssuer("key-a", time.Hour)
	require.NoError(t, err)
	b, err := NewTokenIssuer("key-b", time.Hour)
	require.NoError(t, err)

	tok, _, err := a.Issue("user-1", "alice@x.com")
	require.NoError(t, err)

	_, err = b.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsNoneAlg(t *testing.T) {
	ti, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	claims := jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ti.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RandomKeyWhenSecretEmpty(t *testing.T) {
	a, err := NewTokenIssuer("", time.Hour)
	require.NoError(t, err)
	b, err := NewTokenIssuer("", time.Hour)
	require.NoError(t, err)

	tok, _, err := a.Issue("user-1", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(tok, ".")))

	_, err = b.Parse(tok)
	assert.Error(t, err)

	_, err = NewTokenIssuer("x", 0)
	assert.Error(t, err)
}
