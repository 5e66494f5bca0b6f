package profile

import (
	"net/http"

	"github.com/tendant/dental-idm/pkg/client"
	"github.com/tendant/dental-idm/pkg/common"
	"github.com/tendant/dental-idm/pkg/errors"
)

type Handle struct {
	profileService *ProfileService
	sessions       *common.SessionIssuer
}

func NewHandle(profileService *ProfileService, sessions *common.SessionIssuer) *Handle {
	return &Handle{profileService: profileService, sessions: sessions}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type ChangePasswordResponse struct {
	Message string `json:"message"`
	common.SessionResponse
}

// ChangePassword must be mounted behind client.Authenticator.RequireAuth
func (h *Handle) ChangePassword(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		common.WriteError(w, r, errors.Unauthorized("authentication required"))
		return
	}

	var req ChangePasswordRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}

	user, err := h.profileService.UpdatePassword(r.Context(), UpdatePasswordParams{
		UserID:          authUser.UserID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		common.WriteError(w, r, err)
		return
	}

	// tokens issued before the change are no longer accepted
	session, err := h.sessions.Issue(w, user)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.WriteJSON(w, r, http.StatusOK, ChangePasswordResponse{
		Message:         "Password changed successfully",
		SessionResponse: session,
	})
}
