package signup

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/dental-idm/pkg/common"
	"github.com/tendant/dental-idm/pkg/geo"
)

type Handle struct {
	signupService *SignupService
}

func NewHandle(signupService *SignupService) *Handle {
	return &Handle{signupService: signupService}
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name,omitempty" validate:"omitempty,max=100"`
	Age      string `json:"age,omitempty" validate:"omitempty,max=20"`
	Country  string `json:"country,omitempty" validate:"omitempty,max=100"`
}

type SignupResponse struct {
	UserID           string              `json:"user_id"`
	Message          string              `json:"message"`
	VerificationKind string              `json:"verification_kind"`
	VerificationSent bool                `json:"verification_sent"`
	User             common.UserResponse `json:"user"`
}

// Routes mounts POST /signup
func (h *Handle) Routes(r chi.Router) {
	r.Post("/signup", h.Signup)
}

func (h *Handle) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}

	result, err := h.signupService.Register(r.Context(), RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Age:      req.Age,
		Country:  req.Country,
		ClientIP: geo.ClientIP(r),
	})
	if err != nil {
		common.WriteError(w, r, err)
		return
	}

	user, err := common.NewUserResponse(result.User)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.WriteJSON(w, r, http.StatusCreated, SignupResponse{
		UserID:           user.ID,
		Message:          "User created successfully",
		VerificationKind: string(result.VerificationKind),
		VerificationSent: result.VerificationSent,
		User:             user,
	})
}
