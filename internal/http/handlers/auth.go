package handlers

import (
	"errors"
	"fmt"
	"net/http"

	apierrors "github.com/pribylovaa/go-foody/internal/errors"
	"github.com/pribylovaa/go-foody/internal/models"
	"github.com/pribylovaa/go-foody/internal/service"
)

var errNoPrincipal = errors.New("handlers: no authenticated user in context")

// Signup: POST /auth/signup.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var in models.CredentialsRequest
	if err := decodeCredentials(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	id, err := h.svc.Signup(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SignupResponse{ID: id})
}

// Signin: POST /auth/signin.
func (h *Handlers) Signin(w http.ResponseWriter, r *http.Request) {
	var in models.CredentialsRequest
	if err := decodeCredentials(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	pair, err := h.svc.Signin(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// Refresh: GET /auth/refresh, под REFRESH-токеном.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	pair, err := h.svc.Refresh(r.Context(), user)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, pair)
}

// Logout: GET /auth/logout, под ACCESS-токеном.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, err := h.svc.Logout(r.Context(), user)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.LogoutResponse{ID: id})
}

// decodeCredentials разбирает тело signup/signin и проверяет формат полей.
func decodeCredentials(r *http.Request, in *models.CredentialsRequest) error {
	if err := decodeStrict(r, in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %w", service.ErrInvalidArgument, err)
	}
	return nil
}
