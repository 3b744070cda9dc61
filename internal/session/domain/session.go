// Package domain holds the session entity and its lifetime policy.
package domain

import "time"

// Session is a server-side login session. ExpiresAt slides forward on
// activity; AbsoluteExpiresAt is fixed at creation and never moves. The
// invariant ExpiresAt <= AbsoluteExpiresAt holds at all times, including
// after any extension. Sessions are never deleted by this subsystem;
// housekeeping of dead rows is an external concern.
type Session struct {
	ID                string
	UserID            string
	RememberMe        bool
	ExpiresAt         time.Time
	AbsoluteExpiresAt time.Time
	Revoked           bool
	RevokedAt         *time.Time // nil when not revoked
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Revoke marks the session revoked at now. Revocation is monotonic: on an
// already revoked session this changes nothing, so the first RevokedAt wins.
func (s *Session) Revoke(now time.Time) {
	if s.Revoked {
		return
	}
	t := now
	s.Revoked = true
	s.RevokedAt = &t
	s.UpdatedAt = now
}

// IsLive reports whether the session grants access at now.
func (s *Session) IsLive(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt) && now.Before(s.AbsoluteExpiresAt)
}
