package api

import (
	"net/http"

	"github.com/halcyonlabs/halcyon/internal/api/helpers"
	"github.com/halcyonlabs/halcyon/internal/api/middleware"
	"github.com/halcyonlabs/halcyon/internal/apperr"
	"github.com/halcyonlabs/halcyon/internal/auth"
	"github.com/halcyonlabs/halcyon/internal/identity"
)

// RoleHandler serves the tenant role catalog.
type RoleHandler struct {
	service *auth.Service
}

func NewRoleHandler(service *auth.Service) *RoleHandler {
	return &RoleHandler{service: service}
}

type createRoleRequest struct {
	Type identity.RoleType `json:"type"`
}

// Create adds a canonical role of the given type to the tenant catalog.
func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.GetSession(r.Context())
	if err != nil {
		helpers.RespondError(w, r, apperr.Unauthenticated())
		return
	}

	var req createRoleRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, r, apperr.InvalidInput(err.Error()))
		return
	}

	role, err := h.service.CreateRole(r.Context(), sess.TenantID, req.Type)
	if err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, role)
}

// List returns the tenant's role catalog.
func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.GetSession(r.Context())
	if err != nil {
		helpers.RespondError(w, r, apperr.Unauthenticated())
		return
	}

	roles, err := h.service.ListRoles(r.Context(), sess.TenantID)
	if err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, roles)
}
