package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/sandeepkv93/movie-catalog-backend/internal/service"
	servicegomock "github.com/sandeepkv93/movie-catalog-backend/internal/service/gomock"
)

func newFavoritesHandlerForTest(t *testing.T) (*FavoritesHandler, *servicegomock.MockUserServiceInterface) {
	t.Helper()
	svc := servicegomock.NewMockUserServiceInterface(gomock.NewController(t))
	return NewFavoritesHandler(svc), svc
}

func TestFavoritesHandlerList(t *testing.T) {
	h, svc := newFavoritesHandlerForTest(t)
	svc.EXPECT().LikedMovies(gomock.Any(), "u1").Return(nil, nil)

	rr := httptest.NewRecorder()
	h.List(rr, asUser(httptest.NewRequest(http.MethodGet, "/api/users/favorites", nil), regularUser))
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestFavoritesHandlerAdd(t *testing.T) {
	t.Run("returns updated list", func(t *testing.T) {
		h, svc := newFavoritesHandlerForTest(t)
		svc.EXPECT().AddLikedMovie(gomock.Any(), "u1", "tt0111161").Return([]string{"tt0068646", "tt0111161"}, nil)

		rr := httptest.NewRecorder()
		h.Add(rr, asUser(jsonRequest(t, http.MethodPost, "/api/users/favorites", map[string]string{"movieId": "tt0111161"}), regularUser))
		if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `["tt0068646","tt0111161"]` {
			t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		h, svc := newFavoritesHandlerForTest(t)
		svc.EXPECT().AddLikedMovie(gomock.Any(), "u1", "tt0111161").Return(nil, service.ErrMovieAlreadyLiked)

		rr := httptest.NewRecorder()
		h.Add(rr, asUser(jsonRequest(t, http.MethodPost, "/api/users/favorites", map[string]string{"movieId": "tt0111161"}), regularUser))
		expectMessage(t, rr, http.StatusBadRequest, "Movie already liked")
	})

	t.Run("missing identity record", func(t *testing.T) {
		h, svc := newFavoritesHandlerForTest(t)
		svc.EXPECT().AddLikedMovie(gomock.Any(), "u1", "m").Return(nil, service.ErrUserNotFound)

		rr := httptest.NewRecorder()
		h.Add(rr, asUser(jsonRequest(t, http.MethodPost, "/api/users/favorites", map[string]string{"movieId": "m"}), regularUser))
		expectMessage(t, rr, http.StatusNotFound, "User not found")
	})
}

func TestFavoritesHandlerClear(t *testing.T) {
	h, svc := newFavoritesHandlerForTest(t)
	svc.EXPECT().ClearLikedMovies(gomock.Any(), "u1").Return(nil)

	rr := httptest.NewRecorder()
	h.Clear(rr, asUser(httptest.NewRequest(http.MethodDelete, "/api/users/favorites", nil), regularUser))
	expectMessage(t, rr, http.StatusOK, "All liked movies deleted successfully")
}
