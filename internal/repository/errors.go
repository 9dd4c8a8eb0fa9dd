package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidUserID     = errors.New("invalid user id")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrMovieAlreadyLiked = errors.New("movie already liked")
	ErrAdminProtected    = errors.New("admin user cannot be deleted")
)

// isUniqueViolation covers drivers that do not translate constraint errors.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUserNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidUserID):
		return "invalid_id"
	case errors.Is(err, ErrDuplicateEmail), errors.Is(err, ErrMovieAlreadyLiked):
		return "conflict"
	case errors.Is(err, ErrAdminProtected):
		return "rejected"
	default:
		return "error"
	}
}
