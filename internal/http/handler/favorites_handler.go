package handler

import (
	"net/http"

	"github.com/sandeepkv93/movie-catalog-backend/internal/http/response"
	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
	"github.com/sandeepkv93/movie-catalog-backend/internal/service"
)

type FavoritesHandler struct {
	userSvc service.UserServiceInterface
}

func NewFavoritesHandler(userSvc service.UserServiceInterface) *FavoritesHandler {
	return &FavoritesHandler{userSvc: userSvc}
}

type addFavoriteRequest struct {
	MovieID string `json:"movieId"`
}

func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	likes, err := h.userSvc.LikedMovies(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, nonNil(likes))
}

func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req addFavoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, r)
		return
	}
	likes, err := h.userSvc.AddLikedMovie(r.Context(), user.ID, req.MovieID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.EmitAudit(r, observability.AuditInput{EventName: "favorites.added", ActorUserID: user.ID, TargetID: req.MovieID, Outcome: "success"})
	response.JSON(w, r, http.StatusOK, nonNil(likes))
}

func (h *FavoritesHandler) Clear(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.userSvc.ClearLikedMovies(r.Context(), user.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.EmitAudit(r, observability.AuditInput{EventName: "favorites.cleared", ActorUserID: user.ID, TargetID: user.ID, Outcome: "success"})
	response.Message(w, r, http.StatusOK, "All liked movies deleted successfully")
}

func nonNil(likes []string) []string {
	if likes == nil {
		return []string{}
	}
	return likes
}
