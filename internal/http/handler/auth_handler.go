package handler

import (
	"errors"
	"net/http"

	"github.com/sandeepkv93/movie-catalog-backend/internal/http/response"
	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
	"github.com/sandeepkv93/movie-catalog-backend/internal/service"
)

type AuthHandler struct {
	authSvc service.AuthServiceInterface
}

func NewAuthHandler(authSvc service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Image    string `json:"image"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, r)
		return
	}
	result, err := h.authSvc.Register(r.Context(), service.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Image:    req.Image,
	})
	if err != nil {
		observability.EmitAudit(r, observability.AuditInput{EventName: "user.registered", Outcome: "failure", Reason: auditReason(err)})
		writeServiceError(w, r, err)
		return
	}
	observability.EmitAudit(r, observability.AuditInput{EventName: "user.registered", ActorUserID: result.User.ID, TargetID: result.User.ID, Outcome: "success"})
	response.JSON(w, r, http.StatusCreated, newAuthResponse(result))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, r)
		return
	}
	result, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		observability.EmitAudit(r, observability.AuditInput{EventName: "user.login.failure", Outcome: "failure", Reason: auditReason(err)})
		writeServiceError(w, r, err)
		return
	}
	observability.EmitAudit(r, observability.AuditInput{EventName: "user.login.success", ActorUserID: result.User.ID, TargetID: result.User.ID, Outcome: "success"})
	response.JSON(w, r, http.StatusOK, newAuthResponse(result))
}

func auditReason(err error) string {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return "validation_" + verr.Field
	case errors.Is(err, service.ErrUserExists):
		return "user_exists"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, service.ErrInvalidOldPassword):
		return "invalid_old_password"
	case errors.Is(err, service.ErrAdminUndeletable):
		return "admin_protected"
	case errors.Is(err, service.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, service.ErrInvalidUserID):
		return "invalid_id"
	default:
		return "internal"
	}
}
