package middleware

import (
	"net/http"

	"hirewire/backend/internal/security"
	userdomain "hirewire/backend/internal/user/domain"
)

// AssertionHeader carries a signed identity assertion between services.
const AssertionHeader = "X-Identity-Assertion"

// VerifyAssertion verifies the identity assertion header when present. It
// fails open: an absent, malformed, or badly signed assertion leaves the
// request anonymous and lets it proceed, and the handler decides what an
// anonymous caller may do. Rejecting here would turn a stale upstream into
// a hard outage for endpoints that can serve anonymously.
func VerifyAssertion(verifier *security.AssertionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			value := r.Header.Get(AssertionHeader)
			if value == "" {
				next.ServeHTTP(w, r)
				return
			}
			payload, err := verifier.Verify(value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			role, err := userdomain.ParseRole(payload.Role)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithIdentity(r.Context(), payload.UserID, role, "")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
