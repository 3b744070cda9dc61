package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	identityservice "hirewire/backend/internal/identity/service"
	"hirewire/backend/internal/security"
	"hirewire/backend/internal/server/middleware"
	"hirewire/backend/internal/telemetry"
	userdomain "hirewire/backend/internal/user/domain"
)

// UserReader is the user lookup surface the internal handler needs.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// InternalHandler serves service-to-service endpoints authenticated by the
// identity assertion header, not by a session cookie.
type InternalHandler struct {
	users  UserReader
	auth   *identityservice.AuthService
	events *telemetry.SecurityEvents
}

// NewInternalHandler returns an InternalHandler with the given dependencies.
func NewInternalHandler(users UserReader, auth *identityservice.AuthService, events *telemetry.SecurityEvents) *InternalHandler {
	return &InternalHandler{users: users, auth: auth, events: events}
}

type internalUserResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Locked bool   `json:"locked"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

// GetUser returns a user's account data for an asserted caller. The assertion
// middleware fails open to anonymous, so the authentication decision lands
// here: no asserted identity means 401. Contact details are included only for
// admins and the user themselves.
func (h *InternalHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	callerRole, _ := middleware.GetRole(r.Context())

	id := chi.URLParam(r, "id")
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	resp := internalUserResponse{
		UserID: user.ID,
		Role:   user.Role.String(),
		Locked: user.Locked,
	}
	if callerRole == userdomain.RoleAdmin || callerID == user.ID {
		profile, err := h.auth.Profile(r.Context(), user.ID)
		if err != nil {
			if errors.Is(err, security.ErrIntegrityFailure) || errors.Is(err, security.ErrUnknownKeyVersion) {
				h.events.IntegrityFailure(r.Context(), security.PurposeUserContact.String(), user.ID, err)
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		resp.Email = profile.Email
		resp.Name = profile.Name
	}
	writeJSON(w, http.StatusOK, resp)
}
