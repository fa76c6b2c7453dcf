package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"leetlab/internal/common"
	"leetlab/internal/common/security"
	"leetlab/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	UserCtxKey     contextKey = "user"
	TokenCtxKey    contextKey = "token"
	TokenExpCtxKey contextKey = "tokenExp"
)

// SessionValidator resolves the user behind a verified token.
type SessionValidator interface {
	ValidateSession(ctx context.Context, userID, token string) (*model.User, error)
}

// Authenticator requires a verified, unrevoked token whose user still
// exists. It must run after jwtauth.Verify.
func Authenticator(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if errors.Is(err, jwtauth.ErrNoTokenFound) || (err == nil && token == nil) {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims")
				return
			}

			raw := security.RawToken(r)
			user, err := sessions.ValidateSession(r.Context(), userID, raw)
			if err != nil {
				if errors.Is(err, common.ErrUnauthorized) {
					log.Debug().Err(err).Str("user_id", userID).Msg("session rejected")
					common.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired session")
					return
				}
				common.RespondWithServiceError(w, err)
				return
			}

			exp, _ := security.GetExpiryFromClaims(claims)
			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			ctx = context.WithValue(ctx, TokenCtxKey, raw)
			ctx = context.WithValue(ctx, TokenExpCtxKey, exp)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		if !ok || !user.IsAdmin() {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok && user != nil
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	user, ok := GetUserFromContext(ctx)
	if !ok {
		return "", false
	}
	return user.ID, true
}

// GetSessionFromContext returns the raw token and its expiry.
func GetSessionFromContext(ctx context.Context) (string, time.Time) {
	token, _ := ctx.Value(TokenCtxKey).(string)
	exp, _ := ctx.Value(TokenExpCtxKey).(time.Time)
	return token, exp
}
