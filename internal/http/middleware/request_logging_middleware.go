package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sandeepkv93/movie-catalog-backend/internal/domain"
)

// StructuredRequestLogger writes one slog record per request. Server errors
// log at error, client errors at warn.
func StructuredRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		holder := &identityHolder{}
		next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), identityHolderKey, holder)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("route", routePattern(r)),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000.0),
			slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			slog.String("client_ip", r.RemoteAddr),
			slog.String("user_agent", r.UserAgent()),
		}
		if holder.user != nil {
			attrs = append(attrs, slog.String("user_id", holder.user.ID))
		}
		slog.Default().LogAttrs(r.Context(), requestLogLevel(status), "http.request", attrs...)
	})
}

func requestLogLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

const identityHolderKey contextKey = "identity_holder"

// identityHolder lets Protect, which runs deeper in the chain, report the
// authenticated identity back to the request logger.
type identityHolder struct {
	user *domain.User
}

func shareIdentity(ctx context.Context, user *domain.User) {
	if h, ok := ctx.Value(identityHolderKey).(*identityHolder); ok {
		h.user = user
	}
}
