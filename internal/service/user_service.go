package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sandeepkv93/movie-catalog-backend/internal/domain"
	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
	"github.com/sandeepkv93/movie-catalog-backend/internal/repository"
)

type UserService struct {
	users     repository.UserRepository
	tokens    TokenIssuer
	listCache *AdminUserListCache
	storage   StorageService
	logger    *slog.Logger
}

type UpdateProfileInput struct {
	FullName string
	Email    string
	Image    string
}

// NewUserService builds the account service. storage may be nil, in which
// case avatar uploads report ErrStorageDisabled.
func NewUserService(users repository.UserRepository, tokens TokenIssuer, listCache *AdminUserListCache, storage StorageService, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, tokens: tokens, listCache: listCache, storage: storage, logger: logger}
}

// Identity loads the public view of an identity for the auth gate.
func (s *UserService) Identity(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindPublicByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*AuthResult, error) {
	update := repository.ProfileUpdate{
		FullName: strings.TrimSpace(in.FullName),
		Email:    normalizeEmail(in.Email),
		Image:    strings.TrimSpace(in.Image),
	}
	if update.Email != "" {
		if err := validateFields(fieldCheck{name: "email", value: update.Email, rules: emailRules()}); err != nil {
			return nil, err
		}
		existing, err := s.users.FindByEmail(ctx, update.Email)
		switch {
		case err == nil && existing.ID != id:
			return nil, ErrUserExists
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return nil, err
		}
	}
	if err := s.users.UpdateProfile(ctx, id, update); err != nil {
		return nil, mapRepoError(err)
	}
	s.listCache.Invalidate(ctx)
	return s.reissue(ctx, id)
}

// UpdateAvatar stores a new avatar image and points the identity at it.
// The previous avatar is removed when it belongs to the same identity.
func (s *UserService) UpdateAvatar(ctx context.Context, id string, file io.Reader, size int64) (_ *AuthResult, err error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	ctx, span := observability.StartSpan(ctx, "user.update_avatar")
	defer func() { observability.EndSpan(span, err) }()

	current, err := s.users.FindPublicByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	key, err := s.storage.UploadAvatar(ctx, id, file, size)
	if err != nil {
		observability.RecordAvatarUpload(ctx, avatarOutcome(err))
		return nil, err
	}
	if err := s.users.UpdateProfile(ctx, id, repository.ProfileUpdate{Image: s.storage.ObjectURL(key)}); err != nil {
		observability.RecordAvatarUpload(ctx, "error")
		if delErr := s.storage.DeleteAvatar(ctx, id, key); delErr != nil {
			s.logger.WarnContext(ctx, "orphaned avatar cleanup failed", "user_id", id, "object_key", key, "error", delErr)
		}
		return nil, mapRepoError(err)
	}
	observability.RecordAvatarUpload(ctx, "success")
	s.removeAvatar(ctx, id, current.Image)
	s.listCache.Invalidate(ctx)
	return s.reissue(ctx, id)
}

func (s *UserService) DeleteSelf(ctx context.Context, id string) error {
	return s.deleteIdentity(ctx, id)
}

func (s *UserService) LikedMovies(ctx context.Context, id string) ([]string, error) {
	likes, err := s.users.LikedMovies(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return likes, nil
}

func (s *UserService) AddLikedMovie(ctx context.Context, id, movieID string) ([]string, error) {
	movieID = strings.TrimSpace(movieID)
	if err := validateFields(fieldCheck{name: "movieId", value: movieID, rules: movieIDRules()}); err != nil {
		observability.RecordFavoritesEvent(ctx, "add", "invalid")
		return nil, err
	}
	likes, err := s.users.AddLikedMovie(ctx, id, movieID)
	if err != nil {
		err = mapRepoError(err)
		if errors.Is(err, ErrMovieAlreadyLiked) {
			observability.RecordFavoritesEvent(ctx, "add", "duplicate")
		} else {
			observability.RecordFavoritesEvent(ctx, "add", "error")
		}
		return nil, err
	}
	observability.RecordFavoritesEvent(ctx, "add", "success")
	s.listCache.Invalidate(ctx)
	return likes, nil
}

func (s *UserService) ClearLikedMovies(ctx context.Context, id string) error {
	if err := s.users.ClearLikedMovies(ctx, id); err != nil {
		observability.RecordFavoritesEvent(ctx, "clear", "error")
		return mapRepoError(err)
	}
	observability.RecordFavoritesEvent(ctx, "clear", "success")
	s.listCache.Invalidate(ctx)
	return nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return cachedAdminList(ctx, s.listCache, "all", s.users.List)
}

func (s *UserService) ListUsersPaged(ctx context.Context, req repository.PageRequest) (repository.PageResult[domain.User], error) {
	key := fmt.Sprintf("page=%d&page_size=%d", req.Page, req.PageSize)
	return cachedAdminList(ctx, s.listCache, key, func(ctx context.Context) (repository.PageResult[domain.User], error) {
		return s.users.ListPaged(ctx, req)
	})
}

func (s *UserService) DeleteUser(ctx context.Context, targetID string) error {
	err := s.deleteIdentity(ctx, targetID)
	switch {
	case err == nil:
		observability.RecordAdminUserEvent(ctx, "delete", "success")
	case errors.Is(err, ErrAdminUndeletable):
		observability.RecordAdminUserEvent(ctx, "delete", "rejected")
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidUserID):
		observability.RecordAdminUserEvent(ctx, "delete", "not_found")
	default:
		observability.RecordAdminUserEvent(ctx, "delete", "error")
	}
	return err
}

// deleteIdentity refuses admins up front and again inside the store, so a
// concurrent promotion cannot slip through.
func (s *UserService) deleteIdentity(ctx context.Context, id string) error {
	u, err := s.users.FindPublicByID(ctx, id)
	if err != nil {
		return mapRepoError(err)
	}
	if u.IsAdmin {
		return ErrAdminUndeletable
	}
	if err := s.users.DeleteNonAdmin(ctx, id); err != nil {
		return mapRepoError(err)
	}
	s.listCache.Invalidate(ctx)
	s.removeAvatar(ctx, id, u.Image)
	return nil
}

func (s *UserService) reissue(ctx context.Context, id string) (*AuthResult, error) {
	u, err := s.users.FindPublicByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	token, expiresAt, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *UserService) removeAvatar(ctx context.Context, userID, imageURL string) {
	if s.storage == nil || imageURL == "" {
		return
	}
	key, ok := s.storage.ObjectKeyFromURL(imageURL)
	if !ok || !ownsAvatarKey(userID, key) {
		return
	}
	if err := s.storage.DeleteAvatar(ctx, userID, key); err != nil {
		s.logger.WarnContext(ctx, "previous avatar cleanup failed", "user_id", userID, "object_key", key, "error", err)
	}
}

func avatarOutcome(err error) string {
	switch {
	case errors.Is(err, ErrFileTooBig):
		return "too_big"
	case errors.Is(err, ErrInvalidFileType):
		return "invalid_type"
	default:
		return "error"
	}
}
