package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/cascade-scheduler/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims transfer.CustomClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("key", "user-1", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("key", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "cascade-scheduler", claims.Issuer)
}

func TestGenerateTokenNeedsSecret(t *testing.T) {
	_, err := GenerateToken("", "user-1", time.Hour)
	assert.Error(t, err)
}

func TestValidateTokenRejects(t *testing.T) {
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	cases := map[string]string{
		"foreign issuer": sign(t, jwt.SigningMethodHS256, []byte("key"), transfer.CustomClaims{
			UserID:           "user-1",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else", ExpiresAt: exp},
		}),
		"no expiry": sign(t, jwt.SigningMethodHS256, []byte("key"), transfer.CustomClaims{
			UserID:           "user-1",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer},
		}),
		"other hmac": sign(t, jwt.SigningMethodHS512, []byte("key"), transfer.CustomClaims{
			UserID:           "user-1",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, ExpiresAt: exp},
		}),
		"no user": sign(t, jwt.SigningMethodHS256, []byte("key"), transfer.CustomClaims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, ExpiresAt: exp},
		}),
		"garbage": "not.a.token",
	}
	for name, token := range cases {
		_, err := ValidateToken("key", token)
		assert.Error(t, err, name)
	}
}

func TestValidateTokenFallsBackToSubject(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, []byte("key"), transfer.CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   "user-9",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := ValidateToken("key", token)
	require.NoError(t, err)
	assert.Equal(t, "user-9", claims.UserID)
}
