package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sandeepkv93/movie-catalog-backend/internal/domain"
	"github.com/sandeepkv93/movie-catalog-backend/internal/http/response"
	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
	"github.com/sandeepkv93/movie-catalog-backend/internal/security"
	"github.com/sandeepkv93/movie-catalog-backend/internal/service"
)

type contextKey string

const (
	IdentityContextKey contextKey = "identity"
)

// IdentityLoader resolves a verified token subject to its public record.
type IdentityLoader interface {
	Identity(ctx context.Context, id string) (*domain.User, error)
}

// Protect admits requests carrying a valid bearer token for an existing
// identity and attaches that identity to the request context.
func Protect(verifier security.TokenVerifier, loader IdentityLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				observability.RecordTokenVerification(r.Context(), "missing")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Not authorized, no token", nil)
				return
			}
			id, err := verifier.Verify(raw)
			if err != nil {
				outcome := tokenFailureOutcome(err)
				observability.RecordTokenVerification(r.Context(), outcome)
				slog.DebugContext(r.Context(), "token verification failed", "reason", outcome)
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Not authorized, invalid token", nil)
				return
			}
			user, err := loader.Identity(r.Context(), id)
			if err != nil {
				if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrInvalidUserID) {
					observability.RecordTokenVerification(r.Context(), "unknown_identity")
					response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Not authorized, user not found", nil)
					return
				}
				slog.ErrorContext(r.Context(), "identity lookup failed", "error", err)
				response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
				return
			}
			observability.RecordTokenVerification(r.Context(), "ok")
			shareIdentity(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user)))
		})
	}
}

func IdentityFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(IdentityContextKey).(*domain.User)
	return u, ok && u != nil
}

// WithIdentity returns a copy of ctx carrying user, as Protect does.
func WithIdentity(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, IdentityContextKey, user)
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func tokenFailureOutcome(err error) string {
	switch {
	case errors.Is(err, security.ErrTokenExpired):
		return "expired"
	case errors.Is(err, security.ErrTokenBadSignature):
		return "bad_signature"
	default:
		return "malformed"
	}
}
