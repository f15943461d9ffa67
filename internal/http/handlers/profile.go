package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-foody/internal/errors"
	"github.com/pribylovaa/go-foody/internal/models"
)

// Me: GET /auth/me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, h.svc.Profile(user))
}

// EditMe: PATCH /auth/me.
func (h *Handlers) EditMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var in models.EditProfileRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	updated, err := h.svc.EditProfile(r.Context(), user, in.Nickname, in.ImageURI)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.svc.Profile(updated))
}

// Categories: PATCH /auth/category.
func (h *Handlers) Categories(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var in models.CategoriesRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	updated, err := h.svc.UpdateCategories(r.Context(), user, in.Categories())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.svc.Profile(updated))
}
