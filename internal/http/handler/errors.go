package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sandeepkv93/movie-catalog-backend/internal/domain"
	"github.com/sandeepkv93/movie-catalog-backend/internal/http/middleware"
	"github.com/sandeepkv93/movie-catalog-backend/internal/http/response"
	"github.com/sandeepkv93/movie-catalog-backend/internal/service"
)

const maxJSONBody = 1 << 20

// authResponse is the identity projection returned with a fresh token.
type authResponse struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Image    string `json:"image,omitempty"`
	IsAdmin  bool   `json:"isAdmin"`
	Token    string `json:"token"`
}

func newAuthResponse(res *service.AuthResult) authResponse {
	return authResponse{
		ID:       res.User.ID,
		FullName: res.User.FullName,
		Email:    res.User.Email,
		Image:    res.User.Image,
		IsAdmin:  res.User.IsAdmin,
		Token:    res.Token,
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// currentUser reads the identity attached by Protect and answers 401 when
// the route was mounted without it.
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Not authorized, no token", nil)
		return nil, false
	}
	return user, true
}

func writeBadBody(w http.ResponseWriter, r *http.Request) {
	response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
}

// writeServiceError renders a service failure. Unknown errors are logged
// and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", verr.Message, map[string]string{"field": verr.Field})
	case errors.Is(err, service.ErrUserExists):
		response.Error(w, r, http.StatusBadRequest, "USER_EXISTS", "User already exists", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusBadRequest, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	case errors.Is(err, service.ErrInvalidOldPassword):
		response.Error(w, r, http.StatusBadRequest, "INVALID_OLD_PASSWORD", "Invalid old password", nil)
	case errors.Is(err, service.ErrMovieAlreadyLiked):
		response.Error(w, r, http.StatusBadRequest, "MOVIE_ALREADY_LIKED", "Movie already liked", nil)
	case errors.Is(err, service.ErrInvalidUserID):
		response.Error(w, r, http.StatusBadRequest, "INVALID_USER_ID", "Invalid user id", nil)
	case errors.Is(err, service.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	case errors.Is(err, service.ErrAdminUndeletable):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "Can't delete admin user", nil)
	case errors.Is(err, service.ErrFileTooBig), isMaxBytes(err):
		response.Error(w, r, http.StatusRequestEntityTooLarge, "FILE_TOO_BIG", service.ErrFileTooBig.Error(), nil)
	case errors.Is(err, service.ErrInvalidFileType):
		response.Error(w, r, http.StatusUnsupportedMediaType, "INVALID_FILE_TYPE", service.ErrInvalidFileType.Error(), nil)
	case errors.Is(err, service.ErrStorageDisabled):
		response.Error(w, r, http.StatusServiceUnavailable, "STORAGE_DISABLED", "Avatar storage is disabled", nil)
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}

func isMaxBytes(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large")
}
