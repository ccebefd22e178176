package api

import (
	"net/http"

	"github.com/halcyonlabs/halcyon/internal/api/helpers"
	"github.com/halcyonlabs/halcyon/internal/api/middleware"
	"github.com/halcyonlabs/halcyon/internal/apperr"
)

type mfaCodeRequest struct {
	Code string `json:"code"`
}

// SetupMFA stores a pending secret and returns the provisioning material.
// The response is shown exactly once.
func (h *AuthHandler) SetupMFA(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.GetSession(r.Context())
	if err != nil {
		helpers.RespondError(w, r, apperr.Unauthenticated())
		return
	}

	setup, err := h.service.SetupMFA(r.Context(), sess.TenantID, sess.UserID)
	if err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, setup)
}

// EnableMFA turns MFA on after the caller proves possession of the pending
// secret.
func (h *AuthHandler) EnableMFA(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.GetSession(r.Context())
	if err != nil {
		helpers.RespondError(w, r, apperr.Unauthenticated())
		return
	}

	var req mfaCodeRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, r, apperr.InvalidInput(err.Error()))
		return
	}
	if req.Code == "" {
		helpers.RespondError(w, r, apperr.InvalidInput("code is required"))
		return
	}

	if err := h.service.EnableMFA(r.Context(), sess.TenantID, sess.UserID, req.Code); err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DisableMFA turns MFA off; a valid current code is required.
func (h *AuthHandler) DisableMFA(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.GetSession(r.Context())
	if err != nil {
		helpers.RespondError(w, r, apperr.Unauthenticated())
		return
	}

	var req mfaCodeRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, r, apperr.InvalidInput(err.Error()))
		return
	}
	if req.Code == "" {
		helpers.RespondError(w, r, apperr.InvalidInput("code is required"))
		return
	}

	if err := h.service.DisableMFA(r.Context(), sess.TenantID, sess.UserID, req.Code); err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
