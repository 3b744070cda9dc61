package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	sessionservice "hirewire/backend/internal/session/service"
)

// SessionCookieName is the cookie carrying the opaque session id.
const SessionCookieName = "hw_session"

// SessionViews is the session surface the middleware needs.
type SessionViews interface {
	GetView(ctx context.Context, now time.Time, sessionID string) (sessionservice.View, error)
	ExtendIfDue(ctx context.Context, now time.Time, sessionID string)
}

// RequireSession validates the session cookie on every request. A missing,
// expired, or revoked session is a plain 401 with no detail about which it
// was. Store outages are a 503, not a 401: a rejected session and a broken
// backend must stay distinguishable to callers. On success the identity is
// placed in context and the sliding expiry is refreshed when due.
func RequireSession(sessions SessionViews) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			now := time.Now().UTC()
			view, err := sessions.GetView(r.Context(), now, cookie.Value)
			if err != nil {
				if errors.Is(err, sessionservice.ErrInvalidSession) {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}
			sessions.ExtendIfDue(r.Context(), now, view.SessionID)
			ctx := WithIdentity(r.Context(), view.UserID, view.Role, view.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSessionCookie writes the session cookie. The cookie expires at the
// session's absolute cap; the sliding expiry is enforced server-side, so the
// browser holding the cookie longer grants nothing.
func SetSessionCookie(w http.ResponseWriter, view sessionservice.View) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    view.SessionID,
		Path:     "/",
		Expires:  view.AbsoluteExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
