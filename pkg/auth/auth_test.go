package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	m := NewManager("secret", "folio-test", time.Hour, NewTokenBlacklist(0))

	signed, claims, err := m.GenerateToken(42)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := m.ParseToken(signed)
	require.NoError(t, err)
	assert.Equal(t, uint(42), parsed.UserID)
	assert.Equal(t, "folio-test", parsed.Issuer)
}

func TestParseRejectsForeignSecretAndExpired(t *testing.T) {
	m := NewManager("secret", "folio-test", time.Hour, NewTokenBlacklist(0))
	other := NewManager("other", "folio-test", time.Hour, NewTokenBlacklist(0))

	signed, _, err := other.GenerateToken(1)
	require.NoError(t, err)
	_, err = m.ParseToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	expired := NewManager("secret", "folio-test", -time.Minute, NewTokenBlacklist(0))
	signed, _, err = expired.GenerateToken(1)
	require.NoError(t, err)
	_, err = m.ParseToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRevokeToken(t *testing.T) {
	bl := NewTokenBlacklist(0)
	m := NewManager("secret", "folio-test", time.Hour, bl)

	signed, _, err := m.GenerateToken(7)
	require.NoError(t, err)
	require.NoError(t, m.RevokeToken(signed))
	assert.Equal(t, 1, bl.Len())

	_, err = m.ParseToken(signed)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestBlacklistCleanup(t *testing.T) {
	bl := NewTokenBlacklist(0)
	require.NoError(t, bl.AddToBlacklist("old", time.Now().Add(-time.Second)))
	require.NoError(t, bl.AddToBlacklist("new", time.Now().Add(time.Hour)))

	assert.False(t, bl.IsBlacklisted("old"))
	assert.True(t, bl.IsBlacklisted("new"))

	bl.cleanup()
	assert.Equal(t, 1, bl.Len())
}

func TestAPIKeyAndPassword(t *testing.T) {
	a, b := GenerateAPIKey(), GenerateAPIKey()
	assert.Len(t, a, APITokenLength)
	assert.NotEqual(t, a, b)

	hashed, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hashed, "s3cret-pass"))
	assert.False(t, CheckPassword(hashed, "wrong"))
}
