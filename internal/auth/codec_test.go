package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(CodecConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
	})
	require.NoError(t, err)
	return codec
}

func TestNewTokenCodec_RejectsMissingSecrets(t *testing.T) {
	_, err := NewTokenCodec(CodecConfig{RefreshSecret: "r"})
	assert.Error(t, err)

	_, err = NewTokenCodec(CodecConfig{AccessSecret: "a"})
	assert.Error(t, err)
}

func TestNewTokenCodec_RejectsEqualSecrets(t *testing.T) {
	_, err := NewTokenCodec(CodecConfig{
		AccessSecret:  "same",
		RefreshSecret: "same",
	})
	assert.Error(t, err)
}

func TestIssueAndVerifyAccess(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.IssueAccess("u-1")
	require.NoError(t, err)

	subject, err := codec.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", subject)
}

func TestIssueAndVerifyRefresh(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.IssueRefresh("u-1")
	require.NoError(t, err)

	subject, err := codec.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", subject)
}

func TestVerify_TokenClassesAreNotInterchangeable(t *testing.T) {
	codec := newTestCodec(t)

	accessToken, err := codec.IssueAccess("u-1")
	require.NoError(t, err)
	refreshToken, err := codec.IssueRefresh("u-1")
	require.NoError(t, err)

	// A refresh token must never verify as an access token and vice versa.
	_, err = codec.VerifyAccess(refreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = codec.VerifyRefresh(accessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyAccess_ExpiredToken(t *testing.T) {
	codec, err := NewTokenCodec(CodecConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     -time.Minute,
	})
	require.NoError(t, err)

	token, err := codec.IssueAccess("u-1")
	require.NoError(t, err)

	_, err = codec.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyAccess_GarbageToken(t *testing.T) {
	codec := newTestCodec(t)

	_, err := codec.VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyAccess_WrongSecret(t *testing.T) {
	codec := newTestCodec(t)

	other, err := NewTokenCodec(CodecConfig{
		AccessSecret:  "different-access-secret",
		RefreshSecret: "different-refresh-secret",
	})
	require.NoError(t, err)

	token, err := other.IssueAccess("u-1")
	require.NoError(t, err)

	_, err = codec.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyAccess_RejectsUnsignedToken(t *testing.T) {
	codec := newTestCodec(t)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyAccess_RejectsEmptySubject(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.IssueAccess("")
	require.NoError(t, err)

	_, err = codec.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestDefaultTTLs(t *testing.T) {
	codec := newTestCodec(t)
	assert.Equal(t, 7*24*time.Hour, codec.RefreshTTL())
}
