package domain

import (
	"errors"
	"testing"
	"time"
)

func testPolicy() LifetimePolicy {
	return LifetimePolicy{
		StandardDuration:      2 * time.Hour,
		ExtendedDuration:      30 * 24 * time.Hour,
		AbsoluteLimit:         90 * 24 * time.Hour,
		StandardExtension:     2 * time.Hour,
		ExtendedExtension:     24 * time.Hour,
		RefreshTriggerPercent: 25,
	}
}

func TestLifetimePolicy_Create(t *testing.T) {
	p := testPolicy()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s, err := p.Create("s1", "u1", false, now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got, want := s.ExpiresAt, now.Add(2*time.Hour); !got.Equal(want) {
		t.Errorf("ExpiresAt: got %v, want %v", got, want)
	}
	if got, want := s.AbsoluteExpiresAt, now.Add(90*24*time.Hour); !got.Equal(want) {
		t.Errorf("AbsoluteExpiresAt: got %v, want %v", got, want)
	}
	if s.ExpiresAt.After(s.AbsoluteExpiresAt) {
		t.Error("ExpiresAt exceeds AbsoluteExpiresAt at creation")
	}

	remembered, err := p.Create("s2", "u1", true, now)
	if err != nil {
		t.Fatalf("Create remember-me: %v", err)
	}
	if got, want := remembered.ExpiresAt, now.Add(30*24*time.Hour); !got.Equal(want) {
		t.Errorf("remember-me ExpiresAt: got %v, want %v", got, want)
	}
}

func TestLifetimePolicy_CreateInvalid(t *testing.T) {
	now := time.Now().UTC()

	p := testPolicy()
	p.StandardDuration = 0
	if _, err := p.Create("s1", "u1", false, now); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("zero sliding duration: want ErrInvalidPolicy, got %v", err)
	}

	p = testPolicy()
	p.AbsoluteLimit = time.Hour // shorter than the 2h sliding window
	if _, err := p.Create("s1", "u1", false, now); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("cap below window: want ErrInvalidPolicy, got %v", err)
	}
}

func TestLifetimePolicy_Validate(t *testing.T) {
	if err := testPolicy().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for name, mutate := range map[string]func(*LifetimePolicy){
		"zero standard":     func(p *LifetimePolicy) { p.StandardDuration = 0 },
		"zero extended":     func(p *LifetimePolicy) { p.ExtendedDuration = 0 },
		"cap below window":  func(p *LifetimePolicy) { p.AbsoluteLimit = time.Hour },
		"zero extension":    func(p *LifetimePolicy) { p.StandardExtension = 0 },
		"trigger too small": func(p *LifetimePolicy) { p.RefreshTriggerPercent = 0 },
		"trigger too large": func(p *LifetimePolicy) { p.RefreshTriggerPercent = 101 },
	} {
		p := testPolicy()
		mutate(&p)
		if err := p.Validate(); !errors.Is(err, ErrInvalidPolicy) {
			t.Errorf("%s: want ErrInvalidPolicy, got %v", name, err)
		}
	}
}

func TestLifetimePolicy_ShouldRefreshBoundary(t *testing.T) {
	p := testPolicy() // 2h window, 25% trigger
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := p.Create("s1", "u1", false, start)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// 29 of 120 minutes remaining (24.2%) -> refresh.
	if !p.ShouldRefresh(s, start.Add(91*time.Minute)) {
		t.Error("at 91 minutes elapsed: want refresh")
	}
	// 31 of 120 minutes remaining (25.8%) -> no refresh.
	if p.ShouldRefresh(s, start.Add(89*time.Minute)) {
		t.Error("at 89 minutes elapsed: want no refresh")
	}
	// Exactly 30 of 120 minutes remaining (25.0%): boundary is inclusive.
	if !p.ShouldRefresh(s, start.Add(90*time.Minute)) {
		t.Error("at the exact threshold: want refresh")
	}
}

func TestLifetimePolicy_ShouldRefreshGuards(t *testing.T) {
	p := testPolicy()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := p.Create("s1", "u1", false, start)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	revoked := *s
	revoked.Revoke(start.Add(time.Minute))
	if p.ShouldRefresh(&revoked, start.Add(110*time.Minute)) {
		t.Error("revoked session: want no refresh")
	}

	if p.ShouldRefresh(s, s.AbsoluteExpiresAt) {
		t.Error("at the absolute cap: want no refresh")
	}
	if p.ShouldRefresh(s, s.AbsoluteExpiresAt.Add(time.Hour)) {
		t.Error("past the absolute cap: want no refresh")
	}
}

func TestLifetimePolicy_ExtendClampsToCap(t *testing.T) {
	p := testPolicy()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := p.Create("s1", "u1", false, start)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Plain extension moves the sliding expiry forward.
	p.Extend(s, start.Add(100*time.Minute))
	if got, want := s.ExpiresAt, start.Add(100*time.Minute+2*time.Hour); !got.Equal(want) {
		t.Errorf("ExpiresAt after extend: got %v, want %v", got, want)
	}

	// An extension that would overshoot the cap is clamped, never applied past it.
	nearCap := s.AbsoluteExpiresAt.Add(-time.Minute)
	p.Extend(s, nearCap)
	if !s.ExpiresAt.Equal(s.AbsoluteExpiresAt) {
		t.Errorf("ExpiresAt near cap: got %v, want cap %v", s.ExpiresAt, s.AbsoluteExpiresAt)
	}

	// At the cap the extension is a legitimate no-op.
	before := s.ExpiresAt
	p.Extend(s, s.AbsoluteExpiresAt.Add(-time.Second))
	if !s.ExpiresAt.Equal(before) {
		t.Errorf("ExpiresAt moved at cap: got %v, want %v", s.ExpiresAt, before)
	}
}

func TestLifetimePolicy_ExtendNeverMovesBackward(t *testing.T) {
	p := testPolicy()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := p.Create("s1", "u1", true, start) // 30d window, 24h extension
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Early in a remember-me session, now+24h is far before the current
	// expiry; the extension must not pull it back.
	before := s.ExpiresAt
	p.Extend(s, start.Add(time.Hour))
	if !s.ExpiresAt.Equal(before) {
		t.Errorf("ExpiresAt moved backward: got %v, want %v", s.ExpiresAt, before)
	}
}

func TestLifetimePolicy_ExtendRevokedIsNoop(t *testing.T) {
	p := testPolicy()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := p.Create("s1", "u1", false, start)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s.Revoke(start.Add(time.Minute))
	before := s.ExpiresAt
	p.Extend(s, start.Add(110*time.Minute))
	if !s.ExpiresAt.Equal(before) {
		t.Error("Extend modified a revoked session")
	}
}

func TestSession_RevokeIdempotent(t *testing.T) {
	p := testPolicy()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := p.Create("s1", "u1", false, start)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	s.Revoke(start.Add(10 * time.Minute))
	if !s.Revoked || s.RevokedAt == nil {
		t.Fatal("Revoke did not mark the session")
	}
	first := *s.RevokedAt

	s.Revoke(start.Add(20 * time.Minute))
	if !s.RevokedAt.Equal(first) {
		t.Errorf("second Revoke changed RevokedAt: got %v, want %v", s.RevokedAt, first)
	}
}

func TestSession_IsLive(t *testing.T) {
	p := testPolicy()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := p.Create("s1", "u1", false, start)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !s.IsLive(start.Add(time.Minute)) {
		t.Error("fresh session: want live")
	}
	if s.IsLive(s.ExpiresAt) {
		t.Error("at sliding expiry: want not live")
	}
	if s.IsLive(s.AbsoluteExpiresAt.Add(time.Hour)) {
		t.Error("past absolute expiry: want not live")
	}

	s.Revoke(start.Add(time.Minute))
	if s.IsLive(start.Add(2 * time.Minute)) {
		t.Error("revoked session: want not live")
	}
}

func TestEndToEndLifecycle(t *testing.T) {
	p := testPolicy()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s, err := p.Create("s1", "u1", false, start)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !s.ExpiresAt.Equal(start.Add(2 * time.Hour)) {
		t.Errorf("ExpiresAt: got %v, want %v", s.ExpiresAt, start.Add(2*time.Hour))
	}
	if !s.AbsoluteExpiresAt.Equal(start.Add(90 * 24 * time.Hour)) {
		t.Errorf("AbsoluteExpiresAt: got %v", s.AbsoluteExpiresAt)
	}

	s.Revoke(start.Add(30 * time.Minute))
	if s.IsLive(start.Add(31 * time.Minute)) {
		t.Error("revoked session still live")
	}
	first := *s.RevokedAt
	s.Revoke(start.Add(45 * time.Minute))
	if !s.RevokedAt.Equal(first) {
		t.Error("second Revoke changed RevokedAt")
	}
}
