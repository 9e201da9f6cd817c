package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m, err := NewTokenManager("secret", "ride-hailing", time.Hour)
	require.NoError(t, err)

	p := Principal{UserID: uuid.New(), Username: "amit", IsAdmin: true}
	token, err := m.Issue(p)
	require.NoError(t, err)

	got, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestTokenManager_Rejects(t *testing.T) {
	m, err := NewTokenManager("secret", "ride-hailing", time.Hour)
	require.NoError(t, err)
	p := Principal{UserID: uuid.New(), Username: "riya"}

	t.Run("wrong key", func(t *testing.T) {
		other, err := NewTokenManager("other-secret", "ride-hailing", time.Hour)
		require.NoError(t, err)
		token, err := other.Issue(p)
		require.NoError(t, err)

		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past, err := NewTokenManager("secret", "ride-hailing", time.Minute)
		require.NoError(t, err)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := past.Issue(p)
		require.NoError(t, err)

		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewTokenManager("secret", "someone-else", time.Hour)
		require.NoError(t, err)
		token, err := other.Issue(p)
		require.NoError(t, err)

		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("non uuid subject", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			Issuer:    "ride-hailing",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenManager_EmptySecret(t *testing.T) {
	_, err := NewTokenManager("", "x", time.Hour)
	assert.ErrorIs(t, err, ErrMissingKey)
}
