package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewTokenSecret(t *testing.T) {
	a, err := NewTokenSecret()
	require.NoError(t, err)
	b, err := NewTokenSecret()
	require.NoError(t, err)

	assert.Len(t, a, tokenSecretBytes*2)
	assert.NotEqual(t, a, b)
}

func TestHashAndCheckTokenSecret(t *testing.T) {
	secret, err := NewTokenSecret()
	require.NoError(t, err)

	hash, err := HashTokenSecret(secret, bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, secret, hash)

	assert.True(t, CheckTokenSecret(secret, hash))
	assert.False(t, CheckTokenSecret("wrong", hash))
}

func TestHashTokenSecret_ClampsBadCost(t *testing.T) {
	_, err := HashTokenSecret("secret", 999)
	assert.NoError(t, err)
	_, err = HashTokenSecret("secret", -1)
	assert.NoError(t, err)
}

func TestFormatAndSplitToken(t *testing.T) {
	token := FormatToken(42, "deadbeef")
	assert.Equal(t, "42.deadbeef", token)

	id, secret, err := SplitToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "deadbeef", secret)
}

func TestSplitToken_Malformed(t *testing.T) {
	for _, token := range []string{"", "42", "42.", "abc.secret", ".secret"} {
		_, _, err := SplitToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}
