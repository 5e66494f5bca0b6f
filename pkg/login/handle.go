package login

import (
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/client"
	"github.com/tendant/dental-idm/pkg/common"
	"github.com/tendant/dental-idm/pkg/errors"
	"github.com/tendant/dental-idm/pkg/tokengenerator"
)

type Handle struct {
	loginService *LoginService
	sessions     *common.SessionIssuer
	cookies      *tokengenerator.CookieSetter
}

func NewHandle(loginService *LoginService, sessions *common.SessionIssuer, cookies *tokengenerator.CookieSetter) *Handle {
	return &Handle{loginService: loginService, sessions: sessions, cookies: cookies}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Message string `json:"message"`
	common.SessionResponse
}

type MeResponse struct {
	User common.UserResponse `json:"user"`
}

// Routes mounts the public sign-in endpoints
func (h *Handle) Routes(r chi.Router) {
	r.Post("/signin", h.Login)
	r.Post("/signout", h.Logout)
}

func (h *Handle) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}

	user, err := h.loginService.Login(r.Context(), req.Email, req.Password)
	if stderrors.Is(err, account.ErrUnverified) && user != nil {
		// the client needs the id to continue with code entry
		common.WriteErrorWith(w, r, err, map[string]interface{}{"user_id": user.ID.Hex()})
		return
	}
	if err != nil {
		common.WriteError(w, r, err)
		return
	}

	session, err := h.sessions.Issue(w, user)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.WriteJSON(w, r, http.StatusOK, LoginResponse{Message: "Login successful", SessionResponse: session})
}

func (h *Handle) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearCookie(w)
	common.WriteJSON(w, r, http.StatusOK, common.MessageResponse{Message: "Logged out"})
}

// Me returns the signed-in account. It must run behind client.RequireAuth.
func (h *Handle) Me(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		common.WriteError(w, r, errors.Unauthorized("authentication required"))
		return
	}
	user, err := common.NewUserResponse(authUser.User)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.WriteJSON(w, r, http.StatusOK, MeResponse{User: user})
}
