package middleware

import (
	"context"
	"net/http"

	"github.com/learnhub/learnhub-backend/api/responses"
	"github.com/learnhub/learnhub-backend/api/validators"
	pkgAuth "github.com/learnhub/learnhub-backend/pkg/auth"
	"github.com/learnhub/learnhub-backend/pkg/config"
	pkgerrors "github.com/learnhub/learnhub-backend/pkg/errors"
	"github.com/learnhub/learnhub-backend/pkg/logger"
)

type errorWriter func(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error)

// Auth verifies the identity provider's bearer token and seeds the request
// context with the caller's id, role and email.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return authWith(cfg, logg, responses.WriteError)
}

// FunctionAuth is Auth for the checkout function endpoint, which reports
// failures as a flat {"error": msg} body.
func FunctionAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return authWith(cfg, logg, responses.WriteFunctionError)
}

func authWith(cfg config.JWTConfig, logg *logger.Logger, writeErr errorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				writeErr(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				writeErr(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithIdentity(r.Context(), claims.UserID.String(), claims.Role.String(), claims.Email)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": claims.Role.String(),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
