package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrMalformedAssertion is returned when an assertion does not have
	// exactly two non-empty base64url parts.
	ErrMalformedAssertion = errors.New("malformed assertion")
	// ErrInvalidSignature is returned when the signature does not verify
	// over the payload bytes.
	ErrInvalidSignature = errors.New("invalid assertion signature")
	// ErrMalformedPayload is returned when the signed payload is not the
	// expected JSON shape.
	ErrMalformedPayload = errors.New("malformed assertion payload")
)

// AssertionPayload is the claim one service signs so another can reconstruct
// an authenticated identity without a shared session store. It carries no
// session id and no revocation state: its only guarantee is that the holder
// of the signing key produced it at some point. Verifying an assertion is not
// a live session check.
type AssertionPayload struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// AssertionIssuer signs identity assertions with the service private key
// (RSA or ECDSA, SHA-256 hash-then-sign). Wire format:
// base64url(payload_json) + "." + base64url(signature).
type AssertionIssuer struct {
	key crypto.Signer
}

// NewAssertionIssuer returns an issuer for the given private key. The key
// must be RSA or ECDSA; anything else is a configuration error.
func NewAssertionIssuer(key crypto.Signer) (*AssertionIssuer, error) {
	if key == nil {
		return nil, ErrInvalidKey
	}
	switch key.Public().(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey:
		return &AssertionIssuer{key: key}, nil
	default:
		return nil, ErrInvalidKey
	}
}

// Issue serializes payload to canonical JSON, signs the raw bytes, and
// returns the two-part header value.
func (i *AssertionIssuer) Issue(payload AssertionPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(raw)
	sig, err := i.key.Sign(rand.Reader, digest[:], crypto.SHA256)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw) + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// AssertionVerifier checks assertions against the issuing service's public key.
type AssertionVerifier struct {
	key crypto.PublicKey
}

// NewAssertionVerifier returns a verifier for the given RSA or ECDSA public key.
func NewAssertionVerifier(key crypto.PublicKey) (*AssertionVerifier, error) {
	switch key.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey:
		return &AssertionVerifier{key: key}, nil
	default:
		return nil, ErrInvalidKey
	}
}

// Verify parses and checks an assertion header value. Outcomes are strict and
// ordered: wrong shape or undecodable parts yield ErrMalformedAssertion, a
// signature mismatch yields ErrInvalidSignature, and an unparseable payload
// yields ErrMalformedPayload. Callers must treat every failure the same way:
// as if no assertion were present.
func (v *AssertionVerifier) Verify(value string) (AssertionPayload, error) {
	parts := strings.Split(value, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return AssertionPayload{}, ErrMalformedAssertion
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return AssertionPayload{}, ErrMalformedAssertion
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return AssertionPayload{}, ErrMalformedAssertion
	}

	digest := sha256.Sum256(raw)
	switch pub := v.key.(type) {
	case *rsa.PublicKey:
		if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
			return AssertionPayload{}, ErrInvalidSignature
		}
	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(pub, digest[:], sig) {
			return AssertionPayload{}, ErrInvalidSignature
		}
	default:
		return AssertionPayload{}, ErrInvalidSignature
	}

	// Deserialize only after the signature checks out; never trust
	// partially-parsed fields.
	var payload AssertionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return AssertionPayload{}, ErrMalformedPayload
	}
	if payload.UserID == "" || payload.Role == "" {
		return AssertionPayload{}, ErrMalformedPayload
	}
	return payload, nil
}
