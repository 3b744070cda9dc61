package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPolicy is returned for session lifetime configuration that can
// never produce a valid session. Callers must treat it as a startup failure.
var ErrInvalidPolicy = errors.New("invalid session lifetime policy")

// LifetimePolicy holds the session duration rules. Standard values apply to
// plain logins; Extended values apply when the user asked to be remembered.
// The policy is a plain value: all methods are pure functions over a session
// and a clock reading, so they are trivially safe for concurrent use.
type LifetimePolicy struct {
	// StandardDuration is the sliding window for plain logins.
	StandardDuration time.Duration
	// ExtendedDuration is the sliding window for remember-me logins.
	ExtendedDuration time.Duration
	// AbsoluteLimit caps total session lifetime regardless of activity.
	AbsoluteLimit time.Duration
	// StandardExtension is how far a refresh pushes ExpiresAt for plain logins.
	StandardExtension time.Duration
	// ExtendedExtension is how far a refresh pushes ExpiresAt for remember-me logins.
	ExtendedExtension time.Duration
	// RefreshTriggerPercent (1-100): refresh when the remaining share of the
	// sliding window drops to this percentage or below.
	RefreshTriggerPercent int
}

// Validate checks the policy at startup. Both sliding windows must be
// positive, the absolute limit must cover either window, extensions must be
// positive, and the trigger must be a percentage.
func (p LifetimePolicy) Validate() error {
	if p.StandardDuration <= 0 || p.ExtendedDuration <= 0 {
		return fmt.Errorf("%w: sliding durations must be positive", ErrInvalidPolicy)
	}
	if p.AbsoluteLimit < p.StandardDuration || p.AbsoluteLimit < p.ExtendedDuration {
		return fmt.Errorf("%w: absolute limit must be at least the sliding duration", ErrInvalidPolicy)
	}
	if p.StandardExtension <= 0 || p.ExtendedExtension <= 0 {
		return fmt.Errorf("%w: extensions must be positive", ErrInvalidPolicy)
	}
	if p.RefreshTriggerPercent < 1 || p.RefreshTriggerPercent > 100 {
		return fmt.Errorf("%w: refresh trigger must be 1-100", ErrInvalidPolicy)
	}
	return nil
}

func (p LifetimePolicy) slidingWindow(rememberMe bool) time.Duration {
	if rememberMe {
		return p.ExtendedDuration
	}
	return p.StandardDuration
}

func (p LifetimePolicy) extension(rememberMe bool) time.Duration {
	if rememberMe {
		return p.ExtendedExtension
	}
	return p.StandardExtension
}

// Create returns a new session for userID starting at now, with the sliding
// expiry one window out and the absolute expiry at the policy cap.
func (p LifetimePolicy) Create(id, userID string, rememberMe bool, now time.Time) (*Session, error) {
	window := p.slidingWindow(rememberMe)
	if window <= 0 {
		return nil, fmt.Errorf("%w: sliding duration must be positive", ErrInvalidPolicy)
	}
	if p.AbsoluteLimit < window {
		return nil, fmt.Errorf("%w: absolute limit shorter than sliding window", ErrInvalidPolicy)
	}
	return &Session{
		ID:                id,
		UserID:            userID,
		RememberMe:        rememberMe,
		ExpiresAt:         now.Add(window),
		AbsoluteExpiresAt: now.Add(p.AbsoluteLimit),
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// ShouldRefresh reports whether the sliding expiry is due for an extension at
// now. The denominator is the session's original sliding window, not the
// distance to the absolute cap, so refreshes thin out as the cap approaches.
// The boundary is inclusive: exactly at the trigger percentage, refresh
// fires. A non-positive window always refreshes.
func (p LifetimePolicy) ShouldRefresh(s *Session, now time.Time) bool {
	if s.Revoked || !now.Before(s.AbsoluteExpiresAt) {
		return false
	}
	window := p.slidingWindow(s.RememberMe)
	if window <= 0 {
		return true
	}
	remaining := s.ExpiresAt.Sub(now)
	return remaining*100 <= window*time.Duration(p.RefreshTriggerPercent)
}

// Extend moves ExpiresAt forward by the policy extension, clamped to the
// absolute cap. It never moves ExpiresAt backward and does nothing on a
// revoked session; near the cap an extension can legitimately be a no-op.
func (p LifetimePolicy) Extend(s *Session, now time.Time) {
	if s.Revoked {
		return
	}
	next := now.Add(p.extension(s.RememberMe))
	if next.After(s.AbsoluteExpiresAt) {
		next = s.AbsoluteExpiresAt
	}
	if next.After(s.ExpiresAt) {
		s.ExpiresAt = next
		s.UpdatedAt = now
	}
}
