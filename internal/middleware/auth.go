// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/GenomePortal/internal/auth"
	"github.com/atinyakov/GenomePortal/internal/models"
	"github.com/atinyakov/GenomePortal/internal/service"
	"go.uber.org/zap"
)

type ctxKey string

const (
	userKey   ctxKey = "user"
	claimsKey ctxKey = "claims"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, *auth.Claims, error)
}

// BearerAuth rejects requests without a valid "Authorization: Bearer"
// token with 401 and a {"detail": ...} body. On success the user and the
// token claims are stored in the request context.
func BearerAuth(a Authenticator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "Not authenticated")
				return
			}

			user, claims, err := a.Authenticate(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrTokenRevoked):
				unauthorized(w, "Token has been revoked")
				return
			case errors.Is(err, service.ErrUserNotFound):
				unauthorized(w, "User not found")
				return
			case errors.Is(err, auth.ErrInvalidToken):
				unauthorized(w, "Could not validate credentials")
				return
			default:
				log.Error("authentication failed", zap.Error(err))
				writeDetail(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, detail)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorDetail{Detail: detail})
}

// GetUserFromContext returns the user stored by BearerAuth.
func GetUserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// GetClaimsFromContext returns the token claims stored by BearerAuth.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey).(*auth.Claims)
	return c
}
