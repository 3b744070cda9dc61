// Package service implements session lifecycle management on top of the
// session store: creation at login, validation on every request, sliding
// refresh, and revocation at logout.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"hirewire/backend/internal/session/domain"
	userdomain "hirewire/backend/internal/user/domain"
)

// ErrInvalidSession is returned whenever a session cannot grant access:
// unknown id, expired, revoked, or the owning account is locked. Callers
// get one error for all of these so responses do not leak which it was.
var ErrInvalidSession = errors.New("invalid session")

// Store is the subset of session persistence the service needs.
type Store interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	UpdateExpiry(ctx context.Context, id string, expiresAt, updatedAt time.Time) error
	Revoke(ctx context.Context, id string, revokedAt time.Time) error
}

// UserRepository is the subset of user persistence the service needs.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// EventSink receives store failures that are swallowed on the request path,
// so best-effort errors still reach operators. May be nil.
type EventSink interface {
	SessionStoreFailure(ctx context.Context, op string, err error)
}

// View is what a validated session exposes to callers. The role comes from
// the current user row, not from anything stored on the session, so a role
// change is visible on the very next request.
type View struct {
	SessionID         string
	UserID            string
	Role              userdomain.Role
	RememberMe        bool
	ExpiresAt         time.Time
	AbsoluteExpiresAt time.Time
}

type Service struct {
	policy domain.LifetimePolicy
	store  Store
	users  UserRepository
	events EventSink
}

// NewService validates the policy and returns the session service.
// events may be nil; swallowed store failures then only hit the process log.
func NewService(policy domain.LifetimePolicy, store Store, users UserRepository, events EventSink) (*Service, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Service{policy: policy, store: store, users: users, events: events}, nil
}

// Create mints a new session for the user at now and persists it.
func (s *Service) Create(ctx context.Context, now time.Time, userID string, role userdomain.Role, rememberMe bool) (View, error) {
	sess, err := s.policy.Create(uuid.New().String(), userID, rememberMe, now)
	if err != nil {
		return View{}, err
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return View{}, fmt.Errorf("create session: %w", err)
	}
	return View{
		SessionID:         sess.ID,
		UserID:            sess.UserID,
		Role:              role,
		RememberMe:        sess.RememberMe,
		ExpiresAt:         sess.ExpiresAt,
		AbsoluteExpiresAt: sess.AbsoluteExpiresAt,
	}, nil
}

// GetView validates the session at now and returns its view. Unknown,
// expired, and revoked sessions all come back as ErrInvalidSession, as does
// a session whose owning account is locked or gone. Store failures are
// returned as-is so callers can tell an outage from a rejection.
func (s *Service) GetView(ctx context.Context, now time.Time, sessionID string) (View, error) {
	sess, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		return View{}, fmt.Errorf("load session: %w", err)
	}
	if sess == nil || !sess.IsLive(now) {
		return View{}, ErrInvalidSession
	}
	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return View{}, fmt.Errorf("load session user: %w", err)
	}
	if user == nil || user.Locked {
		return View{}, ErrInvalidSession
	}
	return View{
		SessionID:         sess.ID,
		UserID:            sess.UserID,
		Role:              user.Role,
		RememberMe:        sess.RememberMe,
		ExpiresAt:         sess.ExpiresAt,
		AbsoluteExpiresAt: sess.AbsoluteExpiresAt,
	}, nil
}

// ExtendIfDue refreshes the sliding expiry when the session has entered the
// refresh window. It is best-effort: the request that triggered it already
// passed validation, so a store failure here is logged and swallowed rather
// than failing the request.
func (s *Service) ExtendIfDue(ctx context.Context, now time.Time, sessionID string) {
	sess, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		log.Printf("session refresh: load %s: %v", sessionID, err)
		s.emitStoreFailure(ctx, "refresh_load", err)
		return
	}
	if sess == nil || !s.policy.ShouldRefresh(sess, now) {
		return
	}
	before := sess.ExpiresAt
	s.policy.Extend(sess, now)
	if sess.ExpiresAt.Equal(before) {
		return
	}
	if err := s.store.UpdateExpiry(ctx, sess.ID, sess.ExpiresAt, sess.UpdatedAt); err != nil {
		log.Printf("session refresh: update %s: %v", sessionID, err)
		s.emitStoreFailure(ctx, "refresh_update", err)
	}
}

func (s *Service) emitStoreFailure(ctx context.Context, op string, err error) {
	if s.events != nil {
		s.events.SessionStoreFailure(ctx, op, err)
	}
}

// Revoke revokes the session at now. Revoking an unknown or already revoked
// session succeeds: logout is idempotent.
func (s *Service) Revoke(ctx context.Context, now time.Time, sessionID string) error {
	if err := s.store.Revoke(ctx, sessionID, now); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
