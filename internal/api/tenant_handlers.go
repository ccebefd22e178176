package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/halcyonlabs/halcyon/internal/api/helpers"
	"github.com/halcyonlabs/halcyon/internal/apperr"
	"github.com/halcyonlabs/halcyon/internal/tenant"
)

// TenantHandler serves the /tenants routes.
type TenantHandler struct {
	service *tenant.Service
}

func NewTenantHandler(service *tenant.Service) *TenantHandler {
	return &TenantHandler{service: service}
}

// Create registers a new tenant.
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input tenant.CreateInput
	if err := helpers.DecodeJSON(r, &input); err != nil {
		helpers.RespondError(w, r, apperr.InvalidInput(err.Error()))
		return
	}

	t, err := h.service.Create(r.Context(), input)
	if err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, t)
}

// List returns all tenants.
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.service.List(r.Context())
	if err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, tenants)
}

// Get returns one tenant by id.
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		helpers.RespondError(w, r, apperr.InvalidInput("malformed tenant id"))
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, t)
}

// Update applies name, domain and active changes to a tenant.
func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		helpers.RespondError(w, r, apperr.InvalidInput("malformed tenant id"))
		return
	}

	var input tenant.UpdateInput
	if err := helpers.DecodeJSON(r, &input); err != nil {
		helpers.RespondError(w, r, apperr.InvalidInput(err.Error()))
		return
	}

	t, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, t)
}
