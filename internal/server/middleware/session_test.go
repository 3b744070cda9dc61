package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sessionservice "hirewire/backend/internal/session/service"
	userdomain "hirewire/backend/internal/user/domain"
)

type fakeSessions struct {
	views    map[string]sessionservice.View
	err      error
	extended []string
}

func (f *fakeSessions) GetView(_ context.Context, _ time.Time, sessionID string) (sessionservice.View, error) {
	if f.err != nil {
		return sessionservice.View{}, f.err
	}
	v, ok := f.views[sessionID]
	if !ok {
		return sessionservice.View{}, sessionservice.ErrInvalidSession
	}
	return v, nil
}

func (f *fakeSessions) ExtendIfDue(_ context.Context, _ time.Time, sessionID string) {
	f.extended = append(f.extended, sessionID)
}

func identityEcho(t *testing.T, wantUser string, wantRole userdomain.Role) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := GetUserID(r.Context())
		if !ok || uid != wantUser {
			t.Errorf("user in context: got %q ok=%v, want %q", uid, ok, wantUser)
		}
		role, ok := GetRole(r.Context())
		if !ok || role != wantRole {
			t.Errorf("role in context: got %q ok=%v, want %q", role, ok, wantRole)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireSession_ValidCookie(t *testing.T) {
	sessions := &fakeSessions{views: map[string]sessionservice.View{
		"s1": {SessionID: "s1", UserID: "u1", Role: userdomain.RoleSeeker},
	}}
	h := RequireSession(sessions)(identityEcho(t, "u1", userdomain.RoleSeeker))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "s1"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if len(sessions.extended) != 1 || sessions.extended[0] != "s1" {
		t.Errorf("refresh not attempted: %v", sessions.extended)
	}
}

func TestRequireSession_MissingOrInvalidCookie(t *testing.T) {
	sessions := &fakeSessions{views: map[string]sessionservice.View{}}
	h := RequireSession(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without a valid session")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no cookie: got %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "unknown"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown session: got %d, want 401", rec.Code)
	}
}

func TestRequireSession_StoreOutageIsNot401(t *testing.T) {
	sessions := &fakeSessions{err: errors.New("store down")}
	h := RequireSession(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached during store outage")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "s1"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("store outage: got %d, want 503", rec.Code)
	}
}

func TestSessionCookie_Attributes(t *testing.T) {
	rec := httptest.NewRecorder()
	abs := time.Now().UTC().Add(90 * 24 * time.Hour).Truncate(time.Second)
	SetSessionCookie(rec, sessionservice.View{SessionID: "s1", AbsoluteExpiresAt: abs})

	res := rec.Result()
	cookies := res.Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies: got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookieName || c.Value != "s1" {
		t.Errorf("cookie: %+v", c)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie flags: HttpOnly=%v Secure=%v SameSite=%v", c.HttpOnly, c.Secure, c.SameSite)
	}
	if !c.Expires.Equal(abs) {
		t.Errorf("cookie expiry: got %v, want %v", c.Expires, abs)
	}

	rec = httptest.NewRecorder()
	ClearSessionCookie(rec)
	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge != -1 {
		t.Errorf("clear cookie: %+v", cleared)
	}
}
