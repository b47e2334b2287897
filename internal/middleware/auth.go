package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aminshahid573/authapi/internal/domain"
	"github.com/aminshahid573/authapi/internal/service"
	"github.com/google/uuid"
)

// TokenValidator validates bearer access tokens.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*service.Claims, error)
}

// Authenticate requires a valid "Authorization: Bearer <token>" header and
// stores the caller's user id and token in the request context.
func Authenticate(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				writeError(w, domain.ErrUnauthorized)
				return
			}
			token = strings.TrimSpace(token)

			claims, err := validator.ValidateAccessToken(r.Context(), token)
			if err != nil {
				var appErr *domain.AppError
				if !errors.As(err, &appErr) {
					appErr = domain.ErrInvalidToken
				}
				logger.Debug("Rejected bearer token", "error", err, "path", r.URL.Path)
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				writeError(w, appErr)
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID)
			ctx = context.WithValue(ctx, accessTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user's id.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// AccessTokenFromContext returns the bearer token the request was
// authenticated with.
func AccessTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey).(string)
	return token
}
