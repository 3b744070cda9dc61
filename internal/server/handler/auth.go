// Package handler holds the HTTP handlers for the public API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	identityservice "hirewire/backend/internal/identity/service"
	"hirewire/backend/internal/security"
	"hirewire/backend/internal/server/middleware"
	"hirewire/backend/internal/telemetry"
	userdomain "hirewire/backend/internal/user/domain"
)

// AuthHandler serves registration, login, logout, the profile endpoint, and
// assertion minting for authenticated callers.
type AuthHandler struct {
	auth   *identityservice.AuthService
	issuer *security.AssertionIssuer
	events *telemetry.SecurityEvents
}

// NewAuthHandler returns an AuthHandler with the given dependencies.
func NewAuthHandler(auth *identityservice.AuthService, issuer *security.AssertionIssuer, events *telemetry.SecurityEvents) *AuthHandler {
	return &AuthHandler{auth: auth, issuer: issuer, events: events}
}

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	RememberMe bool   `json:"remember_me"`
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type sessionResponse struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Register creates an account and logs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := h.auth.Register(r.Context(), time.Now().UTC(), req.Email, req.Password, req.Name, req.Role, req.RememberMe)
	if err != nil {
		switch {
		case errors.Is(err, identityservice.ErrEmailAlreadyRegistered):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, userdomain.ErrInvalidRole):
			writeError(w, http.StatusBadRequest, "invalid role")
		case errors.Is(err, identityservice.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	middleware.SetSessionCookie(w, view)
	writeJSON(w, http.StatusCreated, sessionResponse{
		UserID:    view.UserID,
		Role:      view.Role.String(),
		ExpiresAt: view.ExpiresAt,
	})
}

// Login authenticates and mints a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := h.auth.Login(r.Context(), time.Now().UTC(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		switch {
		case errors.Is(err, identityservice.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, identityservice.ErrAccountLocked):
			writeError(w, http.StatusForbidden, "account locked")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	middleware.SetSessionCookie(w, view)
	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:    view.UserID,
		Role:      view.Role.String(),
		ExpiresAt: view.ExpiresAt,
	})
}

// Logout revokes the current session and clears the cookie. It requires a
// valid session; an already logged-out client simply gets the 401 from the
// session middleware.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok || sessionID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.auth.Logout(r.Context(), time.Now().UTC(), sessionID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type profileResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
}

// Me returns the caller's decrypted contact profile. A failed decryption is a
// hard 500: serving a partial or empty profile would hide data corruption.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	role, _ := middleware.GetRole(r.Context())
	profile, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, security.ErrIntegrityFailure) || errors.Is(err, security.ErrUnknownKeyVersion) {
			h.events.IntegrityFailure(r.Context(), security.PurposeUserContact.String(), userID, err)
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		UserID: userID,
		Role:   role.String(),
		Email:  profile.Email,
		Name:   profile.Name,
		Phone:  profile.Phone,
	})
}

type assertionResponse struct {
	Assertion string `json:"assertion"`
}

// Assertion mints a signed identity assertion for the calling session, for
// use on service-to-service requests.
func (h *AuthHandler) Assertion(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	role, _ := middleware.GetRole(r.Context())
	value, err := h.issuer.Issue(security.AssertionPayload{UserID: userID, Role: role.String()})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, assertionResponse{Assertion: value})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
