package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/dental-idm/pkg/common"
	"github.com/tendant/dental-idm/pkg/errors"
	"github.com/tendant/dental-idm/pkg/externalprovider"
)

// Handle serves the Google sign-in endpoints
type Handle struct {
	google   *externalprovider.GoogleService
	sessions *common.SessionIssuer
}

func NewHandle(google *externalprovider.GoogleService, sessions *common.SessionIssuer) *Handle {
	return &Handle{google: google, sessions: sessions}
}

// Routes mounts GET /google and GET /google/callback
func (h *Handle) Routes(r chi.Router) {
	r.Get("/google", h.Begin)
	r.Get("/google/callback", h.Callback)
}

// Begin redirects the browser to the Google consent page
func (h *Handle) Begin(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.google.AuthCodeURL()
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback finishes the sign-in and returns the session
func (h *Handle) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if reason := q.Get("error"); reason != "" {
		slog.Info("Google sign-in denied", "error", reason)
		common.WriteError(w, r, errors.Unauthorized("google sign-in was cancelled"))
		return
	}

	user, created, err := h.google.HandleCallback(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}

	resp, err := h.sessions.Issue(w, user)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	resp.Created = created
	common.WriteJSON(w, r, http.StatusOK, resp)
}
