package middleware

import (
	"net/http"

	"github.com/sandeepkv93/movie-catalog-backend/internal/http/response"
)

// RequireAdmin must run after Protect.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := IdentityFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Not authorized, no token", nil)
				return
			}
			if !user.IsAdmin {
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "Not authorized as an admin", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
