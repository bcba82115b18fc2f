package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"schemstory-backend/pkg/auth"
	"schemstory-backend/pkg/common"
	appErrors "schemstory-backend/pkg/errors"
)

// Authenticate validates the bearer token and stores the caller's identity on
// the request context. Behind API Gateway the JWT authorizer has already
// validated the token; the signature check here simply repeats it.
func Authenticate(cfg auth.JWTConfig, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				common.RespondAppError(w, appErrors.NewUnauthorizedError("missing authorization header"))
				return
			}

			user, err := auth.ValidateToken(token, cfg)
			if err != nil {
				logger.Warn("token rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				common.RespondAppError(w, appErrors.NewUnauthorizedError("invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuthenticate attaches the caller's identity when a valid token is
// present and passes the request through anonymously otherwise. Listing
// endpoints use it so public reads stay public.
func OptionalAuthenticate(cfg auth.JWTConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if user, err := auth.ValidateToken(token, cfg); err == nil {
					r = r.WithContext(auth.WithUser(r.Context(), user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
