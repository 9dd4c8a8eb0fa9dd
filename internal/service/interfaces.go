package service

import (
	"context"
	"io"
	"time"

	"github.com/sandeepkv93/movie-catalog-backend/internal/domain"
	"github.com/sandeepkv93/movie-catalog-backend/internal/repository"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

type UserServiceInterface interface {
	Identity(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*AuthResult, error)
	UpdateAvatar(ctx context.Context, id string, file io.Reader, size int64) (*AuthResult, error)
	DeleteSelf(ctx context.Context, id string) error
	LikedMovies(ctx context.Context, id string) ([]string, error)
	AddLikedMovie(ctx context.Context, id, movieID string) ([]string, error)
	ClearLikedMovies(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListUsersPaged(ctx context.Context, req repository.PageRequest) (repository.PageResult[domain.User], error)
	DeleteUser(ctx context.Context, targetID string) error
}

// TokenIssuer mints bearer tokens for an identity id.
type TokenIssuer interface {
	Issue(identityID string) (string, time.Time, error)
}
