// Package service implements account registration, login, and profile access.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"hirewire/backend/internal/security"
	sessionservice "hirewire/backend/internal/session/service"
	userdomain "hirewire/backend/internal/user/domain"
)

// Sentinel errors for the auth service; handlers map them to HTTP statuses.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAccountLocked          = errors.New("account locked")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidInput           = errors.New("invalid input")
)

// Profile is the contact data stored envelope-encrypted on the user row.
type Profile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	Create(ctx context.Context, u *userdomain.User) error
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmailHash(ctx context.Context, emailHash string) (*userdomain.User, error)
}

// Sessions is the minimal session surface needed by the auth service.
type Sessions interface {
	Create(ctx context.Context, now time.Time, userID string, role userdomain.Role, rememberMe bool) (sessionservice.View, error)
	Revoke(ctx context.Context, now time.Time, sessionID string) error
}

// Codec encrypts and decrypts the profile blob.
type Codec interface {
	Encrypt(plaintext []byte, purpose security.Purpose) ([]byte, error)
	Decrypt(envelope []byte, purpose security.Purpose) ([]byte, error)
}

// AuthService implements register, login, logout, and profile reads. Emails
// never touch the database in plaintext: lookup goes through the keyed hash
// and the address itself lives in the encrypted profile.
type AuthService struct {
	users    UserRepo
	sessions Sessions
	hasher   *security.Hasher
	emails   *security.EmailHasher
	codec    Codec
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(users UserRepo, sessions Sessions, hasher *security.Hasher, emails *security.EmailHasher, codec Codec) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		emails:   emails,
		codec:    codec,
	}
}

// Register creates a user with the given email, password, and role, and logs
// them in by minting a session.
func (s *AuthService) Register(ctx context.Context, now time.Time, email, password, name, role string, rememberMe bool) (sessionservice.View, error) {
	email = security.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return sessionservice.View{}, err
	}
	if err := validatePassword(password); err != nil {
		return sessionservice.View{}, err
	}
	parsedRole, err := userdomain.ParseRole(role)
	if err != nil {
		return sessionservice.View{}, err
	}
	emailHash := s.emails.Hash(email)
	existing, err := s.users.GetByEmailHash(ctx, emailHash)
	if err != nil {
		return sessionservice.View{}, err
	}
	if existing != nil {
		return sessionservice.View{}, ErrEmailAlreadyRegistered
	}
	passwordHash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return sessionservice.View{}, err
	}
	pii, err := s.encodeProfile(Profile{Email: email, Name: strings.TrimSpace(name)})
	if err != nil {
		return sessionservice.View{}, err
	}
	user := &userdomain.User{
		ID:           ulid.Make().String(),
		EmailHash:    emailHash,
		PasswordHash: passwordHash,
		Role:         parsedRole,
		PII:          pii,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return sessionservice.View{}, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return sessionservice.View{}, err
	}
	return s.sessions.Create(ctx, now, user.ID, user.Role, rememberMe)
}

// Login authenticates with email and password and mints a session. Unknown
// email and wrong password come back as the same ErrInvalidCredentials; a
// locked account is reported as such only after the password checks out.
func (s *AuthService) Login(ctx context.Context, now time.Time, email, password string, rememberMe bool) (sessionservice.View, error) {
	email = security.NormalizeEmail(email)
	if email == "" || password == "" {
		return sessionservice.View{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmailHash(ctx, s.emails.Hash(email))
	if err != nil {
		return sessionservice.View{}, err
	}
	if user == nil {
		return sessionservice.View{}, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return sessionservice.View{}, ErrInvalidCredentials
	}
	if user.Locked {
		return sessionservice.View{}, ErrAccountLocked
	}
	return s.sessions.Create(ctx, now, user.ID, user.Role, rememberMe)
}

// Logout revokes the session. Revoking an unknown session succeeds.
func (s *AuthService) Logout(ctx context.Context, now time.Time, sessionID string) error {
	return s.sessions.Revoke(ctx, now, sessionID)
}

// Profile decrypts and returns the user's contact profile. A decryption
// failure here is fatal for the request: it means stored data is corrupt or
// was written under an unknown key, and must never be served partially.
func (s *AuthService) Profile(ctx context.Context, userID string) (Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if user == nil {
		return Profile{}, ErrUserNotFound
	}
	return s.decodeProfile(user.PII)
}

func (s *AuthService) encodeProfile(p Profile) ([]byte, error) {
	plain, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return s.codec.Encrypt(plain, security.PurposeUserContact)
}

func (s *AuthService) decodeProfile(envelope []byte) (Profile, error) {
	plain, err := s.codec.Decrypt(envelope, security.PurposeUserContact)
	if err != nil {
		return Profile{}, fmt.Errorf("decrypt profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(plain, &p); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 12 {
		return fmt.Errorf("%w: password must be at least 12 characters", ErrInvalidInput)
	}
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		case r < '0' || (r > '9' && r < 'A') || (r > 'Z' && r < 'a') || r > 'z':
			hasSymbol = true
		}
	}
	if !hasUpper {
		return fmt.Errorf("%w: password must contain at least one uppercase letter", ErrInvalidInput)
	}
	if !hasLower {
		return fmt.Errorf("%w: password must contain at least one lowercase letter", ErrInvalidInput)
	}
	if !hasNumber {
		return fmt.Errorf("%w: password must contain at least one number", ErrInvalidInput)
	}
	if !hasSymbol {
		return fmt.Errorf("%w: password must contain at least one symbol", ErrInvalidInput)
	}
	return nil
}
