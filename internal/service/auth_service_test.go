package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/sandeepkv93/movie-catalog-backend/internal/domain"
	"github.com/sandeepkv93/movie-catalog-backend/internal/repository"
	repogomock "github.com/sandeepkv93/movie-catalog-backend/internal/repository/gomock"
	"github.com/sandeepkv93/movie-catalog-backend/internal/security"
)

const testSecret = "abcdefghijklmnopqrstuvwxyz123456"

func newTestCodec() *security.TokenCodec {
	return security.NewTokenCodec(testSecret, "test")
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	cases := []struct {
		name string
		in   RegisterInput
		want string
	}{
		{"missing name", RegisterInput{Email: "a@example.com", Password: "secret1"}, "Please add a full name"},
		{"missing email", RegisterInput{FullName: "A", Password: "secret1"}, "Please add an email"},
		{"bad email", RegisterInput{FullName: "A", Email: "not-an-email", Password: "secret1"}, "Please add a valid email"},
		{"missing password", RegisterInput{FullName: "A", Email: "a@example.com"}, "Please add a password"},
		{"short password", RegisterInput{FullName: "A", Email: "a@example.com", Password: "12345"}, "Password must be at least 6 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := repogomock.NewMockUserRepository(ctrl)
			svc := NewAuthService(repo, newTestCodec(), nil, nil)

			_, err := svc.Register(context.Background(), tc.in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Message != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, verr.Message)
			}
		})
	}
}

func TestAuthServiceRegisterDuplicate(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	repo.EXPECT().FindByEmail(gomock.Any(), "dup@example.com").Return(&domain.User{ID: "u1"}, nil)
	svc := NewAuthService(repo, newTestCodec(), nil, nil)

	_, err := svc.Register(context.Background(), RegisterInput{FullName: "D", Email: " DUP@example.com ", Password: "secret1"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthServiceRegisterRaceMapsToUserExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	repo.EXPECT().FindByEmail(gomock.Any(), "race@example.com").Return(nil, repository.ErrUserNotFound)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(repository.ErrDuplicateEmail)
	svc := NewAuthService(repo, newTestCodec(), nil, nil)

	_, err := svc.Register(context.Background(), RegisterInput{FullName: "R", Email: "race@example.com", Password: "secret1"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthServiceRegisterSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	codec := newTestCodec()
	repo.EXPECT().FindByEmail(gomock.Any(), "new@example.com").Return(nil, repository.ErrUserNotFound)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *domain.User) error {
		if u.IsAdmin {
			t.Fatal("registration must never create an admin")
		}
		if u.PasswordHash == "" || u.PasswordHash == "secret1" {
			t.Fatalf("expected hashed password, got %q", u.PasswordHash)
		}
		if ok, err := security.VerifyPassword(u.PasswordHash, "secret1"); err != nil || !ok {
			t.Fatalf("stored hash does not verify: ok=%v err=%v", ok, err)
		}
		u.ID = "11111111-1111-1111-1111-111111111111"
		return nil
	})
	svc := NewAuthService(repo, codec, NewAdminUserListCache(NewInMemoryAdminListCacheStore(), 0, nil), nil)

	res, err := svc.Register(context.Background(), RegisterInput{FullName: " New ", Email: "New@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.User.Email != "new@example.com" || res.User.FullName != "New" {
		t.Fatalf("expected normalized identity, got %+v", res.User)
	}
	if res.User.PasswordHash != "" {
		t.Fatal("expected password hash stripped from result")
	}
	sub, err := codec.Verify(res.Token)
	if err != nil || sub != res.User.ID {
		t.Fatalf("token should verify to identity id, sub=%q err=%v", sub, err)
	}
}

func TestAuthServiceLogin(t *testing.T) {
	hash, err := security.HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	t.Run("unknown email", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := repogomock.NewMockUserRepository(ctrl)
		repo.EXPECT().FindByEmail(gomock.Any(), "ghost@example.com").Return(nil, repository.ErrUserNotFound)
		svc := NewAuthService(repo, newTestCodec(), nil, nil)
		if _, err := svc.Login(context.Background(), "ghost@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := repogomock.NewMockUserRepository(ctrl)
		repo.EXPECT().FindByEmail(gomock.Any(), "a@example.com").Return(&domain.User{ID: "u1", PasswordHash: hash}, nil)
		svc := NewAuthService(repo, newTestCodec(), nil, nil)
		if _, err := svc.Login(context.Background(), "a@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("empty credentials", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := NewAuthService(repogomock.NewMockUserRepository(ctrl), newTestCodec(), nil, nil)
		if _, err := svc.Login(context.Background(), "", ""); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := repogomock.NewMockUserRepository(ctrl)
		boom := errors.New("db down")
		repo.EXPECT().FindByEmail(gomock.Any(), "a@example.com").Return(nil, boom)
		svc := NewAuthService(repo, newTestCodec(), nil, nil)
		if _, err := svc.Login(context.Background(), "a@example.com", "secret1"); !errors.Is(err, boom) {
			t.Fatalf("expected store error, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := repogomock.NewMockUserRepository(ctrl)
		repo.EXPECT().FindByEmail(gomock.Any(), "a@example.com").Return(&domain.User{ID: "u1", Email: "a@example.com", PasswordHash: hash}, nil)
		codec := newTestCodec()
		svc := NewAuthService(repo, codec, nil, nil)
		res, err := svc.Login(context.Background(), " A@example.com", "secret1")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if sub, err := codec.Verify(res.Token); err != nil || sub != "u1" {
			t.Fatalf("unexpected token subject %q err=%v", sub, err)
		}
		if res.User.PasswordHash != "" {
			t.Fatal("expected hash stripped")
		}
	})

	t.Run("legacy bcrypt hash is upgraded", func(t *testing.T) {
		legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), 10)
		if err != nil {
			t.Fatalf("bcrypt: %v", err)
		}
		ctrl := gomock.NewController(t)
		repo := repogomock.NewMockUserRepository(ctrl)
		repo.EXPECT().FindByEmail(gomock.Any(), "old@example.com").Return(&domain.User{ID: "u2", PasswordHash: string(legacy)}, nil)
		repo.EXPECT().UpdatePasswordHash(gomock.Any(), "u2", gomock.Any()).DoAndReturn(func(_ context.Context, _ string, h string) error {
			if security.NeedsRehash(h) {
				t.Fatalf("expected argon2id hash, got %q", h)
			}
			return nil
		})
		svc := NewAuthService(repo, newTestCodec(), nil, nil)
		if _, err := svc.Login(context.Background(), "old@example.com", "secret1"); err != nil {
			t.Fatalf("login: %v", err)
		}
	})
}

func TestAuthServiceChangePassword(t *testing.T) {
	hash, err := security.HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	t.Run("short new password", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := NewAuthService(repogomock.NewMockUserRepository(ctrl), newTestCodec(), nil, nil)
		err := svc.ChangePassword(context.Background(), "u1", "secret1", "123")
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != "newPassword" {
			t.Fatalf("expected newPassword validation error, got %v", err)
		}
	})

	t.Run("wrong old password", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := repogomock.NewMockUserRepository(ctrl)
		repo.EXPECT().FindByID(gomock.Any(), "u1").Return(&domain.User{ID: "u1", PasswordHash: hash}, nil)
		svc := NewAuthService(repo, newTestCodec(), nil, nil)
		if err := svc.ChangePassword(context.Background(), "u1", "nope-nope", "newsecret"); !errors.Is(err, ErrInvalidOldPassword) {
			t.Fatalf("expected ErrInvalidOldPassword, got %v", err)
		}
	})

	t.Run("missing identity", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := repogomock.NewMockUserRepository(ctrl)
		repo.EXPECT().FindByID(gomock.Any(), "u9").Return(nil, repository.ErrUserNotFound)
		svc := NewAuthService(repo, newTestCodec(), nil, nil)
		if err := svc.ChangePassword(context.Background(), "u9", "secret1", "newsecret"); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("success stores fresh hash", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := repogomock.NewMockUserRepository(ctrl)
		repo.EXPECT().FindByID(gomock.Any(), "u1").Return(&domain.User{ID: "u1", PasswordHash: hash}, nil)
		repo.EXPECT().UpdatePasswordHash(gomock.Any(), "u1", gomock.Any()).DoAndReturn(func(_ context.Context, _ string, h string) error {
			if h == hash {
				t.Fatal("expected a new hash")
			}
			if ok, _ := security.VerifyPassword(h, "newsecret"); !ok {
				t.Fatal("new hash must verify the new password")
			}
			return nil
		})
		svc := NewAuthService(repo, newTestCodec(), nil, nil)
		if err := svc.ChangePassword(context.Background(), "u1", "secret1", "newsecret"); err != nil {
			t.Fatalf("change password: %v", err)
		}
	})
}
