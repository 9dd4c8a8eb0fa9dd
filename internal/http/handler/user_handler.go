package handler

import (
	"net/http"

	"github.com/sandeepkv93/movie-catalog-backend/internal/http/response"
	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
	"github.com/sandeepkv93/movie-catalog-backend/internal/service"
)

// maxAvatarMemory bounds the multipart parts kept in memory; larger parts
// spill to temporary files.
const maxAvatarMemory = 1 << 20

type UserHandler struct {
	authSvc service.AuthServiceInterface
	userSvc service.UserServiceInterface
}

func NewUserHandler(authSvc service.AuthServiceInterface, userSvc service.UserServiceInterface) *UserHandler {
	return &UserHandler{authSvc: authSvc, userSvc: userSvc}
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Image    string `json:"image"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, r)
		return
	}
	result, err := h.userSvc.UpdateProfile(r.Context(), user.ID, service.UpdateProfileInput{
		FullName: req.FullName,
		Email:    req.Email,
		Image:    req.Image,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.EmitAudit(r, observability.AuditInput{EventName: "user.profile.updated", ActorUserID: user.ID, TargetID: user.ID, Outcome: "success"})
	response.JSON(w, r, http.StatusOK, newAuthResponse(result))
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, r)
		return
	}
	if err := h.authSvc.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		observability.EmitAudit(r, observability.AuditInput{EventName: "user.password.changed", ActorUserID: user.ID, TargetID: user.ID, Outcome: "failure", Reason: auditReason(err)})
		writeServiceError(w, r, err)
		return
	}
	observability.EmitAudit(r, observability.AuditInput{EventName: "user.password.changed", ActorUserID: user.ID, TargetID: user.ID, Outcome: "success"})
	response.Message(w, r, http.StatusOK, "Password changed successfully")
}

func (h *UserHandler) DeleteSelf(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.userSvc.DeleteSelf(r.Context(), user.ID); err != nil {
		observability.EmitAudit(r, observability.AuditInput{EventName: "user.deleted", ActorUserID: user.ID, TargetID: user.ID, Outcome: "failure", Reason: auditReason(err)})
		writeServiceError(w, r, err)
		return
	}
	observability.EmitAudit(r, observability.AuditInput{EventName: "user.deleted", ActorUserID: user.ID, TargetID: user.ID, Outcome: "success"})
	response.Message(w, r, http.StatusOK, "User deleted successfully")
}

// UpdateAvatar accepts a multipart form with the image in the "avatar" part.
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxAvatarMemory); err != nil {
		if isMaxBytes(err) {
			writeServiceError(w, r, service.ErrFileTooBig)
			return
		}
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid multipart form", nil)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("avatar")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "Please add an avatar image", map[string]string{"field": "avatar"})
		return
	}
	defer file.Close()

	result, err := h.userSvc.UpdateAvatar(r.Context(), user.ID, file, header.Size)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.EmitAudit(r, observability.AuditInput{EventName: "user.avatar.updated", ActorUserID: user.ID, TargetID: user.ID, Outcome: "success"})
	response.JSON(w, r, http.StatusOK, newAuthResponse(result))
}
