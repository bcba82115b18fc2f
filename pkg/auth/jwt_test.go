package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	cfg := JWTConfig{Secret: "test-secret", Issuer: "schemstory"}

	base := jwt.MapClaims{
		"sub":      "u1",
		"username": "steve",
		"iss":      "schemstory",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}

	t.Run("valid token", func(t *testing.T) {
		user, err := ValidateToken(signToken(t, "test-secret", base), cfg)
		require.NoError(t, err)
		assert.Equal(t, "u1", user.UserID)
		assert.Equal(t, "steve", user.Username)
	})

	t.Run("cognito username claim", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub":              "u1",
			"cognito:username": "steve",
			"iss":              "schemstory",
			"exp":              time.Now().Add(time.Hour).Unix(),
		}
		user, err := ValidateToken(signToken(t, "test-secret", claims), cfg)
		require.NoError(t, err)
		assert.Equal(t, "steve", user.Username)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := ValidateToken(signToken(t, "other-secret", base), cfg)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub": "u1", "iss": "schemstory",
			"exp": time.Now().Add(-time.Minute).Unix(),
		}
		_, err := ValidateToken(signToken(t, "test-secret", claims), cfg)
		assert.Error(t, err)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := jwt.MapClaims{"sub": "u1", "iss": "schemstory"}
		_, err := ValidateToken(signToken(t, "test-secret", claims), cfg)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub": "u1", "iss": "someone-else",
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		_, err := ValidateToken(signToken(t, "test-secret", claims), cfg)
		assert.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := jwt.MapClaims{
			"iss": "schemstory",
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		_, err := ValidateToken(signToken(t, "test-secret", claims), cfg)
		assert.Error(t, err)
	})
}

func TestUserContextRoundTrip(t *testing.T) {
	ctx := WithUser(context.Background(), UserContext{UserID: "u1", Username: "steve"})

	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)

	_, err = GetUserFromContext(context.Background())
	assert.Error(t, err)
}
