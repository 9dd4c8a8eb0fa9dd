package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sandeepkv93/movie-catalog-backend/internal/domain"
	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
	"github.com/sandeepkv93/movie-catalog-backend/internal/repository"
	"github.com/sandeepkv93/movie-catalog-backend/internal/security"
)

type AuthService struct {
	users     repository.UserRepository
	tokens    TokenIssuer
	listCache *AdminUserListCache
	logger    *slog.Logger
}

// AuthResult is an identity together with a freshly issued bearer token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Image    string
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer, listCache *AdminUserListCache, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{users: users, tokens: tokens, listCache: listCache, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (_ *AuthResult, err error) {
	ctx, span := observability.StartSpan(ctx, "auth.register")
	defer func() { observability.EndSpan(span, err) }()

	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = normalizeEmail(in.Email)
	in.Image = strings.TrimSpace(in.Image)
	if err := validateFields(
		fieldCheck{name: "fullName", value: in.FullName, rules: fullNameRules()},
		fieldCheck{name: "email", value: in.Email, rules: emailRules()},
		fieldCheck{name: "password", value: in.Password, rules: passwordRules()},
	); err != nil {
		observability.RecordRegistration(ctx, "invalid")
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		observability.RecordRegistration(ctx, "duplicate")
		return nil, ErrUserExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		observability.RecordRegistration(ctx, "error")
		return nil, err
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		observability.RecordRegistration(ctx, "error")
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
		Image:        in.Image,
		LikedMovies:  []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		err = mapRepoError(err)
		if errors.Is(err, ErrUserExists) {
			observability.RecordRegistration(ctx, "duplicate")
		} else {
			observability.RecordRegistration(ctx, "error")
		}
		return nil, err
	}
	s.listCache.Invalidate(ctx)
	user.PasswordHash = ""

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		observability.RecordRegistration(ctx, "error")
		return nil, fmt.Errorf("issue token: %w", err)
	}
	observability.RecordRegistration(ctx, "success")
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Login verifies the credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (_ *AuthResult, err error) {
	ctx, span := observability.StartSpan(ctx, "auth.login")
	defer func() { observability.EndSpan(span, err) }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		observability.RecordLoginAttempt(ctx, "invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		observability.RecordLoginAttempt(ctx, "invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		observability.RecordLoginAttempt(ctx, "error")
		return nil, err
	}
	ok, err := security.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		observability.RecordLoginAttempt(ctx, "error")
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		observability.RecordLoginAttempt(ctx, "invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	if security.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user.ID, password)
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		observability.RecordLoginAttempt(ctx, "error")
		return nil, fmt.Errorf("issue token: %w", err)
	}
	user.PasswordHash = ""
	observability.RecordLoginAttempt(ctx, "success")
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if err := validateFields(fieldCheck{name: "newPassword", value: newPassword, rules: passwordRules()}); err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return mapRepoError(err)
	}
	ok, err := security.VerifyPassword(user.PasswordHash, oldPassword)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrInvalidOldPassword
	}
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return mapRepoError(s.users.UpdatePasswordHash(ctx, userID, hash))
}

// rehash upgrades a legacy hash. Failures leave the old hash in place.
func (s *AuthService) rehash(ctx context.Context, userID, password string) {
	hash, err := security.HashPassword(password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, userID, hash)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "legacy password rehash failed", "user_id", userID, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "legacy password hash upgraded", "user_id", userID)
}
