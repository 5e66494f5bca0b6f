// Package iam serves the administrator endpoints for managing accounts.
package iam

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/client"
	"github.com/tendant/dental-idm/pkg/common"
	"github.com/tendant/dental-idm/pkg/errors"
)

type Handle struct {
	accounts *account.AccountService
}

func NewHandle(accounts *account.AccountService) *Handle {
	return &Handle{accounts: accounts}
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UpdateBlockedRequest struct {
	Blocked *bool `json:"blocked" validate:"required"`
}

type UserResponse struct {
	User common.UserResponse `json:"user"`
}

// Routes mounts the user admin endpoints. The caller must already be
// authenticated; the admin role is enforced here.
func (h *Handle) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(client.RequireRole(account.RoleAdmin))
		r.Get("/users/{id}", h.GetUser)
		r.Put("/users/{id}/role", h.UpdateRole)
		r.Put("/users/{id}/block", h.UpdateBlocked)
	})
}

func (h *Handle) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.GetByID(r.Context(), chi.URLParam(r, "id"))
	h.writeUser(w, r, user, err)
}

func (h *Handle) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	user, err := h.accounts.SetRole(r.Context(), chi.URLParam(r, "id"), account.Role(req.Role))
	h.writeUser(w, r, user, err)
}

func (h *Handle) UpdateBlocked(w http.ResponseWriter, r *http.Request) {
	var req UpdateBlockedRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if self, ok := client.GetAuthUser(r); ok && self.UserID == id && *req.Blocked {
		common.WriteError(w, r, errors.InvalidInput("id", "administrators can not block themselves"))
		return
	}
	user, err := h.accounts.SetBlocked(r.Context(), id, *req.Blocked)
	h.writeUser(w, r, user, err)
}

func (h *Handle) writeUser(w http.ResponseWriter, r *http.Request, user *account.User, err error) {
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	resp, err := common.NewUserResponse(user)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.WriteJSON(w, r, http.StatusOK, UserResponse{User: resp})
}
