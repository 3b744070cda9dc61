package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrMissingHashKey is returned when an EmailHasher is constructed without key
// material. This is a configuration defect and fails at construction, not at
// first use.
var ErrMissingHashKey = errors.New("email hash key is required")

// EmailHasher produces a deterministic keyed hash of normalized email
// addresses. Equal emails always hash identically under the same key, which
// allows equality lookups in storage without a plaintext email index.
// Safe for concurrent use.
type EmailHasher struct {
	key []byte
}

// NewEmailHasher returns an EmailHasher keyed with key.
func NewEmailHasher(key []byte) (*EmailHasher, error) {
	if len(key) == 0 {
		return nil, ErrMissingHashKey
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &EmailHasher{key: k}, nil
}

// NormalizeEmail lowercases and trims surrounding whitespace. Every caller
// that stores or looks up an email must normalize the same way, or lookups
// silently fail to match.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Hash returns the hex-encoded HMAC-SHA256 of the normalized email.
func (h *EmailHasher) Hash(email string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(NormalizeEmail(email)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether email hashes to storedHash, in constant time.
func (h *EmailHasher) Verify(email, storedHash string) bool {
	computed := h.Hash(email)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
