package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/movie-catalog-backend/internal/domain"
	"github.com/sandeepkv93/movie-catalog-backend/internal/http/response"
	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
	"github.com/sandeepkv93/movie-catalog-backend/internal/repository"
	"github.com/sandeepkv93/movie-catalog-backend/internal/service"
)

type AdminHandler struct {
	userSvc service.UserServiceInterface
}

func NewAdminHandler(userSvc service.UserServiceInterface) *AdminHandler {
	return &AdminHandler{userSvc: userSvc}
}

// ListUsers answers with the full identity list, or with one page of it
// when page or page_size is present in the query.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("page") && !q.Has("page_size") {
		users, err := h.userSvc.ListUsers(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if users == nil {
			users = []domain.User{}
		}
		response.JSON(w, r, http.StatusOK, users)
		return
	}

	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	page, err := h.userSvc.ListUsersPaged(r.Context(), pageReq)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(page.Items, page.Page, page.PageSize, page.Total, page.TotalPages))
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	targetID := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := h.userSvc.DeleteUser(r.Context(), targetID); err != nil {
		observability.EmitAudit(r, observability.AuditInput{EventName: "admin.user.deleted", ActorUserID: actor.ID, TargetID: targetID, Outcome: "failure", Reason: auditReason(err)})
		writeServiceError(w, r, err)
		return
	}
	observability.EmitAudit(r, observability.AuditInput{EventName: "admin.user.deleted", ActorUserID: actor.ID, TargetID: targetID, Outcome: "success"})
	response.Message(w, r, http.StatusOK, "User deleted successfully")
}

func parsePageRequest(r *http.Request) (repository.PageRequest, error) {
	page := repository.DefaultPage
	pageSize := repository.DefaultPageSize
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page must be a positive integer")
		}
		page = v
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("page_size")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page_size must be a positive integer")
		}
		if v > repository.MaxPageSize {
			return repository.PageRequest{}, fmt.Errorf("page_size must be <= %d", repository.MaxPageSize)
		}
		pageSize = v
	}
	return repository.PageRequest{Page: page, PageSize: pageSize}, nil
}

func paginatedData[T any](items []T, page, pageSize int, total int64, totalPages int) map[string]any {
	if items == nil {
		items = []T{}
	}
	return map[string]any{
		"items": items,
		"pagination": map[string]any{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": totalPages,
		},
	}
}
