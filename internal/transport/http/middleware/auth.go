package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"inkpost/internal/httputil"
	"inkpost/internal/logger"
	"inkpost/internal/metrics"
	"inkpost/internal/model"
	"inkpost/internal/service"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	userKey  contextKey = "user"
	tokenKey contextKey = "token"
)

// Authenticate validates the bearer token with issuer and stores the
// resolved user in the request context. Checks the Authorization header
// first, then falls back to the access_token cookie.
func Authenticate(issuer service.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := BearerToken(r)
			if raw == "" {
				metrics.AuthFailures.WithLabelValues(issuer.Name(), string(model.KindTokenMissing)).Inc()
				httputil.WriteError(w, model.KindTokenMissing, "authorization token not found")
				return
			}

			user, err := issuer.Validate(r.Context(), raw)
			if err != nil {
				if authErr, ok := model.AsAuthError(err); ok {
					metrics.AuthFailures.WithLabelValues(issuer.Name(), string(authErr.Kind)).Inc()
					httputil.WriteError(w, authErr.Kind, authErr.Message)
					return
				}
				// Only auth kinds leave the gateway; everything else is an internal failure.
				metrics.AuthFailures.WithLabelValues(issuer.Name(), string(model.KindInternal)).Inc()
				slog.ErrorContext(r.Context(), "token validation failed", "component", "auth", "guard", issuer.Name(), "error", err)
				httputil.WriteInternalError(w, "internal server error")
				return
			}

			ctx := logger.WithUserID(WithUser(r.Context(), user, raw), user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the raw token from the request, or "".
func BearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	// Fall back to cookie (web browsers)
	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// UserFromContext returns the authenticated user.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok
}

// TokenFromContext returns the raw bearer token that authenticated the request.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok
}

// WithUser stores the authenticated user and its raw token in ctx.
func WithUser(ctx context.Context, user *model.User, raw string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, tokenKey, raw)
}
