package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.GenerateToken("manager1", "manager@greenvalley.org", "society_user", "society1")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "manager1", claims.UserID)
	assert.Equal(t, "society_user", claims.Role)
	assert.Equal(t, "society1", claims.SocietyID)
	assert.Equal(t, time.Hour, m.GetTokenDuration())
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	token, err := m.GenerateToken("admin1", "admin@societyhub.com", "admin", "")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("other-secret", time.Hour)
		_, err := other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTManager("test-secret", time.Hour)
		expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := expired.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("user123")
	require.NoError(t, err)
	assert.NotEqual(t, "user123", hash)
	assert.True(t, h.Check("user123", hash))
	assert.False(t, h.Check("user124", hash))
}

func TestGenerateTemporaryPassword(t *testing.T) {
	pw, err := GenerateTemporaryPassword(8)
	require.NoError(t, err)
	assert.Len(t, pw, 8)
	for _, c := range pw {
		assert.True(t, strings.ContainsRune(temporaryPasswordAlphabet, c))
	}

	other, err := GenerateTemporaryPassword(8)
	require.NoError(t, err)
	assert.NotEqual(t, pw, other)
}
