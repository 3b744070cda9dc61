// Package domain holds the user entity for the marketplace.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRole is returned when parsing a role string that is not one of
// the closed set.
var ErrInvalidRole = errors.New("invalid role")

// Role is the user's marketplace role. The set is closed; anything else is
// rejected at the edges, never defaulted.
type Role string

const (
	RoleSeeker   Role = "seeker"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

// ParseRole validates s against the closed role set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSeeker, RoleEmployer, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

func (r Role) String() string { return string(r) }

// User is a marketplace account. The plaintext email is never stored:
// EmailHash is a keyed hash used for lookup, and the contact details live
// encrypted in PII. Locked users keep their rows but cannot authenticate.
type User struct {
	ID           string
	EmailHash    string
	PasswordHash string
	Role         Role
	Locked       bool
	PII          []byte // envelope-encrypted contact profile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks the structural invariants of a user row before persistence.
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("user id is empty")
	}
	if u.EmailHash == "" {
		return errors.New("user email hash is empty")
	}
	if u.PasswordHash == "" {
		return errors.New("user password hash is empty")
	}
	if _, err := ParseRole(string(u.Role)); err != nil {
		return err
	}
	return nil
}
