package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
)

// BodyLimit caps the request body at maxBytes. Handlers see an
// *http.MaxBytesError once the cap is crossed.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				observability.RecordMiddlewareEvent(r.Context(), "body_limit", "declared_too_large")
			}
			r.Body = &limitedBody{
				ReadCloser: http.MaxBytesReader(w, r.Body, maxBytes),
				ctx:        r.Context(),
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limitedBody records the first read failure of the wrapped body.
type limitedBody struct {
	io.ReadCloser
	ctx      context.Context
	reported bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err == nil || errors.Is(err, io.EOF) || b.reported {
		return n, err
	}
	b.reported = true
	outcome := "read_error"
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		outcome = "rejected_too_large"
	}
	observability.RecordMiddlewareEvent(b.ctx, "body_limit", outcome)
	return n, err
}
