package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/halcyonlabs/halcyon/internal/api/helpers"
	"github.com/halcyonlabs/halcyon/internal/api/middleware"
	"github.com/halcyonlabs/halcyon/internal/apperr"
	"github.com/halcyonlabs/halcyon/internal/auth"
)

// UserHandler serves user administration. Every route is gated by
// RequirePermission on the users resource; the tenant always comes from the
// caller's session.
type UserHandler struct {
	service *auth.Service
}

func NewUserHandler(service *auth.Service) *UserHandler {
	return &UserHandler{service: service}
}

// List returns the tenant's users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.GetSession(r.Context())
	if err != nil {
		helpers.RespondError(w, r, apperr.Unauthenticated())
		return
	}

	users, err := h.service.ListUsers(r.Context(), sess.TenantID)
	if err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, users)
}

// Get returns one user of the tenant.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.GetSession(r.Context())
	if err != nil {
		helpers.RespondError(w, r, apperr.Unauthenticated())
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		helpers.RespondError(w, r, apperr.InvalidInput("malformed user id"))
		return
	}

	user, err := h.service.GetUser(r.Context(), sess.TenantID, id)
	if err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, user)
}

type updateUserRequest struct {
	Email   string      `json:"email,omitempty"`
	Active  *bool       `json:"active,omitempty"`
	RoleIDs []uuid.UUID `json:"role_ids,omitempty"`
}

// Update applies email, active and role changes to a user.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.GetSession(r.Context())
	if err != nil {
		helpers.RespondError(w, r, apperr.Unauthenticated())
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		helpers.RespondError(w, r, apperr.InvalidInput("malformed user id"))
		return
	}

	var req updateUserRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, r, apperr.InvalidInput(err.Error()))
		return
	}

	user, err := h.service.UpdateUser(r.Context(), sess.TenantID, id, auth.UpdateUserInput{
		Email:   req.Email,
		Active:  req.Active,
		RoleIDs: req.RoleIDs,
	})
	if err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, user)
}

// Delete removes a user together with their sessions.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.GetSession(r.Context())
	if err != nil {
		helpers.RespondError(w, r, apperr.Unauthenticated())
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		helpers.RespondError(w, r, apperr.InvalidInput("malformed user id"))
		return
	}

	if err := h.service.DeleteUser(r.Context(), sess.TenantID, id); err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
