// internal/auth/session_test.go
package auth

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndAuthenticate(t *testing.T) {
	s, err := NewSigner(0)
	require.NoError(t, err)

	id := uuid.NewString()
	first, err := s.CreateJWT(id)
	require.NoError(t, err)
	second, err := s.CreateJWT(id)
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "tokens are unique per issue")

	subject, err := s.AuthenticateJWT(first)
	require.NoError(t, err)
	assert.Equal(t, id, subject)
}

func TestAuthenticateRejectsForeignAndExpiredTokens(t *testing.T) {
	s, err := NewSigner(0)
	require.NoError(t, err)
	other, err := NewSigner(0)
	require.NoError(t, err)

	foreign, err := other.CreateJWT("someone")
	require.NoError(t, err)
	_, err = s.AuthenticateJWT(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.AuthenticateJWT("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	stale, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{
		"sub": "someone",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString(s.privateKey)
	require.NoError(t, err)
	_, err = s.AuthenticateJWT(stale)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "someone"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.AuthenticateJWT(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignerFromPath(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	dir := t.TempDir()
	privPath, pubPath := filepath.Join(dir, "key"), filepath.Join(dir, "key.pub")
	require.NoError(t, os.WriteFile(privPath, priv, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pub, 0o600))

	s, err := NewSignerFromPath(privPath, pubPath, time.Hour)
	require.NoError(t, err)
	token, err := s.CreateJWT("abc")
	require.NoError(t, err)

	again, err := NewSignerFromPath(privPath, pubPath, time.Hour)
	require.NoError(t, err)
	subject, err := again.AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "abc", subject)

	_, err = NewSignerFromPath(filepath.Join(dir, "missing"), pubPath, 0)
	assert.Error(t, err)
}

func TestParseTokenExpireTime(t *testing.T) {
	for _, never := range []string{"", "0", "never"} {
		d, err := ParseTokenExpireTime(never)
		require.NoError(t, err)
		assert.Zero(t, d)
	}
	d, err := ParseTokenExpireTime("72h")
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, d)

	_, err = ParseTokenExpireTime("soon")
	assert.Error(t, err)
}
