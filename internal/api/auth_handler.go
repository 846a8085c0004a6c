package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/revittco/storeadmin/internal/identity"
)

type authHandler struct {
	svc *identity.Service
}

type signUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *authHandler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	p, err := h.svc.SignUp(r.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		writeIdentityError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *authHandler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	p, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeIdentityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *authHandler) signOut(w http.ResponseWriter, r *http.Request) {
	tok := bearerToken(r)
	if tok == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	if err := h.svc.SignOut(r.Context(), tok); err != nil {
		writeIdentityError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *authHandler) session(w http.ResponseWriter, r *http.Request) {
	tok := bearerToken(r)
	if tok == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	p, err := h.svc.Restore(r.Context(), tok)
	if err != nil {
		writeIdentityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *authHandler) googleAuthorize(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GoogleAuthURL(r.Context())
	if err != nil {
		writeIdentityError(w, err)
		return
	}
	if r.URL.Query().Get("redirect") == "false" {
		writeJSON(w, http.StatusOK, map[string]string{"authorize_url": u})
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

func (h *authHandler) googleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		writeErrorDetail(w, http.StatusBadRequest, "google sign-in failed", e)
		return
	}
	p, err := h.svc.CompleteGoogle(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		writeIdentityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func writeIdentityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidEmail),
		errors.Is(err, identity.ErrPasswordMismatch),
		errors.Is(err, identity.ErrPasswordTooShort),
		errors.Is(err, identity.ErrInvalidState):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrInvalidToken),
		errors.Is(err, identity.ErrSessionEnded),
		errors.Is(err, identity.ErrEmailUnverified):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, identity.ErrAccountNotLinked):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, identity.ErrGoogleDisabled):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("identity request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
