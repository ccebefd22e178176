package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/halcyonlabs/halcyon/internal/api/helpers"
	"github.com/halcyonlabs/halcyon/internal/api/middleware"
	"github.com/halcyonlabs/halcyon/internal/apperr"
	"github.com/halcyonlabs/halcyon/internal/auth"
	"github.com/halcyonlabs/halcyon/internal/identity"
)

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	service *auth.Service
}

func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

type registerRequest struct {
	Email    string    `json:"email"`
	Password string    `json:"password"`
	TenantID uuid.UUID `json:"tenant_id"`
}

// Register creates an active user with MFA off and no roles.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, r, apperr.InvalidInput(err.Error()))
		return
	}

	user, err := h.service.Register(r.Context(), identity.Credentials{
		Email:    req.Email,
		Password: req.Password,
		TenantID: req.TenantID,
	})
	if err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string    `json:"email"`
	Password string    `json:"password"`
	TenantID uuid.UUID `json:"tenant_id"`
	MFACode  string    `json:"mfa_code,omitempty"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    uuid.UUID `json:"user_id,omitempty"`
}

// Login runs the credential state machine and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, r, apperr.InvalidInput(err.Error()))
		return
	}
	if req.Email == "" || req.Password == "" {
		helpers.RespondError(w, r, apperr.InvalidInput("email and password are required"))
		return
	}

	sess, err := h.service.Authenticate(r.Context(), identity.Credentials{
		Email:    req.Email,
		Password: req.Password,
		TenantID: req.TenantID,
		MFACode:  req.MFACode,
	})
	if err != nil {
		helpers.RespondError(w, r, err)
		return
	}

	helpers.RespondJSON(w, http.StatusOK, sessionResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		UserID:    sess.UserID,
	})
}

type refreshRequest struct {
	SessionID uuid.UUID `json:"session_id"`
}

// Refresh rotates a session, identified either by a bearer token or by an
// explicit session_id in the body.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.Nil

	if token, ok := middleware.BearerToken(r); ok {
		sess, err := h.service.ValidateSession(r.Context(), token)
		if err != nil {
			helpers.RespondError(w, r, err)
			return
		}
		sessionID = sess.ID
	} else if r.ContentLength != 0 {
		var req refreshRequest
		if err := helpers.DecodeJSON(r, &req); err != nil {
			helpers.RespondError(w, r, apperr.InvalidInput(err.Error()))
			return
		}
		sessionID = req.SessionID
	}
	if sessionID == uuid.Nil {
		helpers.RespondError(w, r, apperr.Unauthenticated())
		return
	}

	sess, err := h.service.RefreshSession(r.Context(), sessionID)
	if err != nil {
		helpers.RespondError(w, r, err)
		return
	}

	helpers.RespondJSON(w, http.StatusOK, sessionResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
	})
}

// Logout revokes the caller's session. Idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.GetSession(r.Context())
	if err != nil {
		helpers.RespondError(w, r, apperr.Unauthenticated())
		return
	}
	if err := h.service.Logout(r.Context(), sess.ID); err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll revokes every session of the caller.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.GetSession(r.Context())
	if err != nil {
		helpers.RespondError(w, r, apperr.Unauthenticated())
		return
	}
	if err := h.service.LogoutAll(r.Context(), sess.UserID); err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated caller, roles hydrated.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.GetSession(r.Context())
	if err != nil {
		helpers.RespondError(w, r, apperr.Unauthenticated())
		return
	}

	user, err := h.service.GetUser(r.Context(), sess.TenantID, sess.UserID)
	if err != nil {
		helpers.RespondError(w, r, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, user)
}
