package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/authcore/authcore/internal/auth"
	"github.com/authcore/authcore/internal/model"
	"github.com/authcore/authcore/internal/service"
)

// Authenticator verifies an access token and reports its claims.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*model.TokenClaims, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
}

// Auth returns a middleware that requires a valid, unrevoked access token in
// the Authorization header and injects its claims into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearerToken(r)
			if token == "" {
				logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or malformed Authorization header")
				return
			}

			claims, err := cfg.Authenticator.Authenticate(r.Context(), token)
			if err != nil {
				status, code, message, reason := classifyAuthError(err)
				attrs := []any{
					slog.String("reason", reason),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				}
				if status >= 500 {
					logger.Error("authentication backend failure", append(attrs, slog.String("error", err.Error()))...)
				} else {
					logger.Warn("authentication failed", attrs...)
				}
				writeError(w, status, code, message)
				return
			}

			ctx := auth.ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractBearerToken returns the token from an "Authorization: Bearer <token>"
// header, or "" when the header is absent or uses another scheme.
func ExtractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func classifyAuthError(err error) (status int, code, message, reason string) {
	switch {
	case errors.Is(err, service.ErrRevoked):
		return http.StatusUnauthorized, "TOKEN_REVOKED", "Token has been revoked", "revoked"
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", "expired"
	case errors.Is(err, service.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable", "backend_unavailable"
	default:
		return http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", "invalid_token"
	}
}
