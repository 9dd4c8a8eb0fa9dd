package service

import (
	"errors"

	"github.com/sandeepkv93/movie-catalog-backend/internal/repository"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOldPassword = errors.New("invalid old password")
	ErrUserNotFound       = errors.New("user not found")
	ErrAdminUndeletable   = errors.New("admin user cannot be deleted")
	ErrMovieAlreadyLiked  = errors.New("movie already liked")
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrStorageDisabled    = errors.New("avatar storage is disabled")
)

// ValidationError reports the first input field that failed its rules.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// mapRepoError translates store sentinels into service errors. Unknown
// errors pass through unchanged.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrInvalidUserID):
		return ErrInvalidUserID
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrUserExists
	case errors.Is(err, repository.ErrMovieAlreadyLiked):
		return ErrMovieAlreadyLiked
	case errors.Is(err, repository.ErrAdminProtected):
		return ErrAdminUndeletable
	default:
		return err
	}
}
