package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/sandeepkv93/movie-catalog-backend/internal/domain"
	"github.com/sandeepkv93/movie-catalog-backend/internal/repository"
	repogomock "github.com/sandeepkv93/movie-catalog-backend/internal/repository/gomock"
	"github.com/sandeepkv93/movie-catalog-backend/internal/security"
	"github.com/sandeepkv93/movie-catalog-backend/internal/service"
	servicegomock "github.com/sandeepkv93/movie-catalog-backend/internal/service/gomock"
)

const (
	avatarUserID = "0b6f1c2e-6c1a-4a44-9c65-8a8f7f0e1d21"
	baseURL      = "http://minio.local/avatars/"
)

type avatarFixture struct {
	svc     *service.UserService
	repo    *repogomock.MockUserRepository
	storage *servicegomock.MockStorageService
	store   *servicegomock.MockAdminListCacheStore
}

func newAvatarFixture(t *testing.T) avatarFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := avatarFixture{
		repo:    repogomock.NewMockUserRepository(ctrl),
		storage: servicegomock.NewMockStorageService(ctrl),
		store:   servicegomock.NewMockAdminListCacheStore(ctrl),
	}
	cache := service.NewAdminUserListCache(f.store, time.Minute, nil)
	codec := security.NewTokenCodec("abcdefghijklmnopqrstuvwxyz123456", "test")
	f.svc = service.NewUserService(f.repo, codec, cache, f.storage, nil)
	f.storage.EXPECT().ObjectURL(gomock.Any()).DoAndReturn(func(key string) string { return baseURL + key }).AnyTimes()
	f.storage.EXPECT().ObjectKeyFromURL(gomock.Any()).DoAndReturn(func(url string) (string, bool) {
		if len(url) > len(baseURL) && url[:len(baseURL)] == baseURL {
			return url[len(baseURL):], true
		}
		return "", false
	}).AnyTimes()
	return f
}

func TestUpdateAvatarReplacesPreviousObject(t *testing.T) {
	f := newAvatarFixture(t)
	oldKey := "avatars/user-" + avatarUserID + "/old.png"
	newKey := "avatars/user-" + avatarUserID + "/new.png"

	f.repo.EXPECT().FindPublicByID(gomock.Any(), avatarUserID).Return(&domain.User{ID: avatarUserID, Image: baseURL + oldKey}, nil)
	f.storage.EXPECT().UploadAvatar(gomock.Any(), avatarUserID, gomock.Any(), int64(4)).Return(newKey, nil)
	f.repo.EXPECT().UpdateProfile(gomock.Any(), avatarUserID, repository.ProfileUpdate{Image: baseURL + newKey}).Return(nil)
	f.storage.EXPECT().DeleteAvatar(gomock.Any(), avatarUserID, oldKey).Return(nil)
	f.store.EXPECT().InvalidateNamespace(gomock.Any(), "admin.users").Return(nil)
	f.repo.EXPECT().FindPublicByID(gomock.Any(), avatarUserID).Return(&domain.User{ID: avatarUserID, Image: baseURL + newKey}, nil)

	res, err := f.svc.UpdateAvatar(context.Background(), avatarUserID, bytes.NewReader([]byte("data")), 4)
	if err != nil {
		t.Fatalf("update avatar: %v", err)
	}
	if res.User.Image != baseURL+newKey || res.Token == "" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestUpdateAvatarRemovesUploadWhenProfileWriteFails(t *testing.T) {
	f := newAvatarFixture(t)
	newKey := "avatars/user-" + avatarUserID + "/new.png"

	f.repo.EXPECT().FindPublicByID(gomock.Any(), avatarUserID).Return(&domain.User{ID: avatarUserID}, nil)
	f.storage.EXPECT().UploadAvatar(gomock.Any(), avatarUserID, gomock.Any(), int64(4)).Return(newKey, nil)
	f.repo.EXPECT().UpdateProfile(gomock.Any(), avatarUserID, gomock.Any()).Return(repository.ErrUserNotFound)
	f.storage.EXPECT().DeleteAvatar(gomock.Any(), avatarUserID, newKey).Return(nil)

	_, err := f.svc.UpdateAvatar(context.Background(), avatarUserID, bytes.NewReader([]byte("data")), 4)
	if !errors.Is(err, service.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateAvatarPropagatesUploadRejection(t *testing.T) {
	f := newAvatarFixture(t)
	f.repo.EXPECT().FindPublicByID(gomock.Any(), avatarUserID).Return(&domain.User{ID: avatarUserID}, nil)
	f.storage.EXPECT().UploadAvatar(gomock.Any(), avatarUserID, gomock.Any(), gomock.Any()).Return("", service.ErrInvalidFileType)

	_, err := f.svc.UpdateAvatar(context.Background(), avatarUserID, bytes.NewReader(nil), 0)
	if !errors.Is(err, service.ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType, got %v", err)
	}
}

func TestDeleteSelfSkipsForeignAvatar(t *testing.T) {
	f := newAvatarFixture(t)
	f.repo.EXPECT().FindPublicByID(gomock.Any(), avatarUserID).Return(&domain.User{ID: avatarUserID, Image: "https://gravatar.example/me.png"}, nil)
	f.repo.EXPECT().DeleteNonAdmin(gomock.Any(), avatarUserID).Return(nil)
	f.store.EXPECT().InvalidateNamespace(gomock.Any(), "admin.users").Return(nil)

	if err := f.svc.DeleteSelf(context.Background(), avatarUserID); err != nil {
		t.Fatalf("delete self: %v", err)
	}
}

func TestListUsersFallsBackWhenCacheStoreFails(t *testing.T) {
	f := newAvatarFixture(t)
	f.store.EXPECT().Generation(gomock.Any(), "admin.users").Return(int64(4), nil)
	f.store.EXPECT().Get(gomock.Any(), "admin.users", "all", int64(4)).Return(nil, false, errors.New("redis down"))
	f.repo.EXPECT().List(gomock.Any()).Return([]domain.User{{ID: avatarUserID}}, nil)
	f.store.EXPECT().Set(gomock.Any(), "admin.users", "all", int64(4), gomock.Any(), time.Minute).Return(errors.New("redis down")).AnyTimes()

	users, err := f.svc.ListUsers(context.Background())
	if err != nil || len(users) != 1 {
		t.Fatalf("unexpected users %v err=%v", users, err)
	}
}

func TestListUsersBypassesCacheWhenGenerationUnavailable(t *testing.T) {
	f := newAvatarFixture(t)
	f.store.EXPECT().Generation(gomock.Any(), "admin.users").Return(int64(0), errors.New("redis down"))
	f.repo.EXPECT().List(gomock.Any()).Return([]domain.User{{ID: avatarUserID}}, nil)

	users, err := f.svc.ListUsers(context.Background())
	if err != nil || len(users) != 1 {
		t.Fatalf("unexpected users %v err=%v", users, err)
	}
}

func TestAddLikedMovieSurvivesInvalidationFailure(t *testing.T) {
	f := newAvatarFixture(t)
	f.repo.EXPECT().AddLikedMovie(gomock.Any(), avatarUserID, "m1").Return([]string{"m1"}, nil)
	f.store.EXPECT().InvalidateNamespace(gomock.Any(), "admin.users").Return(errors.New("redis down"))

	likes, err := f.svc.AddLikedMovie(context.Background(), avatarUserID, "m1")
	if err != nil || len(likes) != 1 {
		t.Fatalf("unexpected likes %v err=%v", likes, err)
	}
}
