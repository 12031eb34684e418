package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTokenReturnsSubject(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateToken("0b6a1a3e-3c55-4a3f-9d4b-5f6c1f1d2e11", "a@b.c", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "0b6a1a3e-3c55-4a3f-9d4b-5f6c1f1d2e11", claims.UserID())
	require.Equal(t, "a@b.c", claims.Email)
}

func TestParseTokenRejectsWrongSecretAndExpired(t *testing.T) {
	token, err := GenerateToken("u1", "", []byte("secret"), time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(token, []byte("other"))
	require.Error(t, err)

	expired, err := GenerateToken("u1", "", []byte("secret"), -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired, []byte("secret"))
	require.Error(t, err)
}

func TestParseTokenRequiresSubject(t *testing.T) {
	token, err := GenerateToken("", "", []byte("secret"), time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(token, []byte("secret"))
	require.Error(t, err)
}
