package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// UserContext carries the authenticated caller through a request.
type UserContext struct {
	UserID   string
	Username string
}

type contextKey string

const userContextKey contextKey = "auth_user"

// WithUser attaches the authenticated user to the context.
func WithUser(ctx context.Context, user UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext extracts the authenticated user set by the middleware.
func GetUserFromContext(ctx context.Context) (UserContext, error) {
	user, ok := ctx.Value(userContextKey).(UserContext)
	if !ok || user.UserID == "" {
		return UserContext{}, fmt.Errorf("no authenticated user in context")
	}
	return user, nil
}

// JWTConfig holds token validation settings.
type JWTConfig struct {
	Secret string
	Issuer string
}

// ValidateToken parses and validates an HS256 bearer token, returning the
// caller identity from the sub and username claims. The identity provider
// issues the token; this only checks signature, expiry, and issuer.
func ValidateToken(tokenString string, cfg JWTConfig) (UserContext, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return UserContext{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return UserContext{}, fmt.Errorf("invalid token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return UserContext{}, fmt.Errorf("token missing subject claim")
	}

	username, _ := claims["username"].(string)
	if username == "" {
		// Cognito-issued tokens carry the username under its own claim.
		username, _ = claims["cognito:username"].(string)
	}

	return UserContext{UserID: sub, Username: username}, nil
}
