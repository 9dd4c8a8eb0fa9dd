package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/sandeepkv93/movie-catalog-backend/internal/domain"
)

func mustCreateUser(t *testing.T, repo UserRepository, email string, admin bool) *domain.User {
	t.Helper()
	u := &domain.User{FullName: "User " + email, Email: email, PasswordHash: "$argon2id$placeholder", IsAdmin: admin}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("create %s: %v", email, err)
	}
	return u
}

func TestUserRepositoryCreateAndFind(t *testing.T) {
	repo := NewUserRepository(newRepositoryDBForTest(t))
	ctx := context.Background()

	created := mustCreateUser(t, repo, "a@x.com", false)
	if _, err := uuid.Parse(created.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", created.ID)
	}

	full, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if full.PasswordHash == "" {
		t.Fatal("expected FindByID to load password hash")
	}

	public, err := repo.FindPublicByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find public by id: %v", err)
	}
	if public.PasswordHash != "" {
		t.Fatalf("expected password hash to be excluded, got %q", public.PasswordHash)
	}
	if public.Email != "a@x.com" || public.IsAdmin {
		t.Fatalf("unexpected public user: %+v", public)
	}
	if public.LikedMovies == nil || len(public.LikedMovies) != 0 {
		t.Fatalf("expected empty liked list, got %#v", public.LikedMovies)
	}

	byEmail, err := repo.FindByEmail(ctx, "a@x.com")
	if err != nil || byEmail.ID != created.ID {
		t.Fatalf("find by email: user=%+v err=%v", byEmail, err)
	}

	if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.FindPublicByID(ctx, "not-a-uuid"); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
	if _, err := repo.FindByEmail(ctx, "missing@x.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(newRepositoryDBForTest(t))
	mustCreateUser(t, repo, "a@x.com", false)

	err := repo.Create(context.Background(), &domain.User{FullName: "B", Email: "a@x.com", PasswordHash: "h"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	other := mustCreateUser(t, repo, "b@x.com", false)
	if err := repo.UpdateProfile(context.Background(), other.ID, ProfileUpdate{Email: "a@x.com"}); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail on update, got %v", err)
	}
}

func TestUserRepositoryUpdateProfileKeepsEmptyFields(t *testing.T) {
	repo := NewUserRepository(newRepositoryDBForTest(t))
	ctx := context.Background()
	u := mustCreateUser(t, repo, "a@x.com", false)

	if err := repo.UpdateProfile(ctx, u.ID, ProfileUpdate{Image: "https://img/a.png"}); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	got, err := repo.FindPublicByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Image != "https://img/a.png" || got.FullName != u.FullName || got.Email != u.Email {
		t.Fatalf("unexpected profile after update: %+v", got)
	}
	if err := repo.UpdateProfile(ctx, uuid.NewString(), ProfileUpdate{FullName: "Z"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := repo.UpdateProfile(ctx, u.ID, ProfileUpdate{}); err != nil {
		t.Fatalf("empty update on existing user: %v", err)
	}
}

func TestUserRepositoryLikedMovies(t *testing.T) {
	repo := NewUserRepository(newRepositoryDBForTest(t))
	ctx := context.Background()
	u := mustCreateUser(t, repo, "a@x.com", false)
	other := mustCreateUser(t, repo, "b@x.com", false)

	for _, id := range []string{"m3", "m1", "m2"} {
		if _, err := repo.AddLikedMovie(ctx, u.ID, id); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	if _, err := repo.AddLikedMovie(ctx, other.ID, "m1"); err != nil {
		t.Fatalf("same movie for another user should succeed: %v", err)
	}

	likes, err := repo.AddLikedMovie(ctx, u.ID, "m1")
	if !errors.Is(err, ErrMovieAlreadyLiked) {
		t.Fatalf("expected ErrMovieAlreadyLiked, got likes=%v err=%v", likes, err)
	}

	likes, err = repo.LikedMovies(ctx, u.ID)
	if err != nil {
		t.Fatalf("liked movies: %v", err)
	}
	if fmt.Sprint(likes) != "[m3 m1 m2]" {
		t.Fatalf("expected insertion order without duplicates, got %v", likes)
	}

	if err := repo.ClearLikedMovies(ctx, u.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	likes, err = repo.LikedMovies(ctx, u.ID)
	if err != nil || len(likes) != 0 {
		t.Fatalf("expected empty list after clear, got %v err=%v", likes, err)
	}
	otherLikes, err := repo.LikedMovies(ctx, other.ID)
	if err != nil || len(otherLikes) != 1 {
		t.Fatalf("clear must not touch other users, got %v err=%v", otherLikes, err)
	}

	if _, err := repo.AddLikedMovie(ctx, uuid.NewString(), "m1"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := repo.ClearLikedMovies(ctx, uuid.NewString()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on clear, got %v", err)
	}
}

func TestUserRepositoryDeleteNonAdmin(t *testing.T) {
	repo := NewUserRepository(newRepositoryDBForTest(t))
	ctx := context.Background()
	admin := mustCreateUser(t, repo, "admin@x.com", true)
	member := mustCreateUser(t, repo, "member@x.com", false)
	if _, err := repo.AddLikedMovie(ctx, member.ID, "m1"); err != nil {
		t.Fatalf("add like: %v", err)
	}

	if err := repo.DeleteNonAdmin(ctx, admin.ID); !errors.Is(err, ErrAdminProtected) {
		t.Fatalf("expected ErrAdminProtected, got %v", err)
	}
	if _, err := repo.FindByID(ctx, admin.ID); err != nil {
		t.Fatalf("admin record must survive: %v", err)
	}

	if err := repo.DeleteNonAdmin(ctx, member.ID); err != nil {
		t.Fatalf("delete member: %v", err)
	}
	if _, err := repo.FindByID(ctx, member.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected member gone, got %v", err)
	}
	if err := repo.DeleteNonAdmin(ctx, member.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}

func TestUserRepositoryListAndSetAdmin(t *testing.T) {
	repo := NewUserRepository(newRepositoryDBForTest(t))
	ctx := context.Background()
	first := mustCreateUser(t, repo, "a@x.com", false)
	mustCreateUser(t, repo, "b@x.com", false)
	mustCreateUser(t, repo, "c@x.com", false)
	if _, err := repo.AddLikedMovie(ctx, first.ID, "m1"); err != nil {
		t.Fatalf("add like: %v", err)
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	for _, u := range users {
		if u.PasswordHash != "" {
			t.Fatalf("list must not load password hashes: %+v", u)
		}
	}
	if users[0].ID != first.ID || len(users[0].LikedMovies) != 1 {
		t.Fatalf("expected oldest user first with likes, got %+v", users[0])
	}

	page, err := repo.ListPaged(ctx, PageRequest{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if page.Total != 3 || page.TotalPages != 2 || len(page.Items) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}

	if err := repo.SetAdmin(ctx, " B@X.com ", true); err != nil {
		t.Fatalf("set admin: %v", err)
	}
	promoted, err := repo.FindByEmail(ctx, "b@x.com")
	if err != nil || !promoted.IsAdmin {
		t.Fatalf("expected promoted admin, got %+v err=%v", promoted, err)
	}
	if err := repo.SetAdmin(ctx, "nobody@x.com", true); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepositoryUpdatePasswordHash(t *testing.T) {
	repo := NewUserRepository(newRepositoryDBForTest(t))
	ctx := context.Background()
	u := mustCreateUser(t, repo, "a@x.com", false)

	if err := repo.UpdatePasswordHash(ctx, u.ID, "new-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	got, err := repo.FindByID(ctx, u.ID)
	if err != nil || got.PasswordHash != "new-hash" {
		t.Fatalf("expected new hash, got %+v err=%v", got, err)
	}
	if err := repo.UpdatePasswordHash(ctx, uuid.NewString(), "x"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
