package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hirewire/backend/internal/security"
	userdomain "hirewire/backend/internal/user/domain"
)

func anonymousEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := GetUserID(r.Context()); ok {
			t.Errorf("expected anonymous request, got user %q", uid)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestVerifyAssertion_Valid(t *testing.T) {
	issuer, verifier, err := security.NewTestAssertionPair()
	if err != nil {
		t.Fatalf("NewTestAssertionPair: %v", err)
	}
	value, err := issuer.Issue(security.AssertionPayload{UserID: "u1", Role: "employer"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	h := VerifyAssertion(verifier)(identityEcho(t, "u1", userdomain.RoleEmployer))
	req := httptest.NewRequest(http.MethodGet, "/internal/users/u1", nil)
	req.Header.Set(AssertionHeader, value)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestVerifyAssertion_FailsOpenToAnonymous(t *testing.T) {
	issuer, verifier, err := security.NewTestAssertionPair()
	if err != nil {
		t.Fatalf("NewTestAssertionPair: %v", err)
	}
	badRole, err := issuer.Issue(security.AssertionPayload{UserID: "u1", Role: "superuser"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	good, err := issuer.Issue(security.AssertionPayload{UserID: "u1", Role: "seeker"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	tampered := "x" + strings.TrimPrefix(good, good[:1])

	for name, header := range map[string]string{
		"absent header": "",
		"garbage":       "not-an-assertion",
		"tampered":      tampered,
		"unknown role":  badRole,
		"three parts":   "a.b.c",
	} {
		h := VerifyAssertion(verifier)(anonymousEcho(t))
		req := httptest.NewRequest(http.MethodGet, "/internal/users/u1", nil)
		if header != "" {
			req.Header.Set(AssertionHeader, header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: got %d, want request to proceed anonymously", name, rec.Code)
		}
	}
}
