package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Purpose scopes an envelope to one usage context. The purpose feeds both the
// key derivation and the envelope's authenticated data, so ciphertext sealed
// for one purpose can never be opened, or relabeled, under another.
type Purpose byte

const (
	// PurposeUserContact protects user contact details (email, name, phone).
	PurposeUserContact Purpose = 1
	// PurposeUserResume protects resume and application content.
	PurposeUserResume Purpose = 2
)

// String returns the derivation context name bound to the purpose.
func (p Purpose) String() string {
	switch p {
	case PurposeUserContact:
		return "user-contact"
	case PurposeUserResume:
		return "user-resume"
	default:
		return fmt.Sprintf("purpose(%d)", byte(p))
	}
}

// Envelope byte layout: [version:1][nonce:12][tag:16][ciphertext].
const (
	envelopeVersionSize = 1
	envelopeNonceSize   = 12
	envelopeTagSize     = 16
	envelopeOverhead    = envelopeVersionSize + envelopeNonceSize + envelopeTagSize
)

var (
	// ErrUnknownKeyVersion is returned when an envelope names a key version
	// that is not in the ring. Old envelopes keep decrypting only as long as
	// their version's key is retained.
	ErrUnknownKeyVersion = errors.New("unknown key version")

	// ErrIntegrityFailure is returned when an envelope fails authentication:
	// truncation, corruption, tampering, or a purpose mismatch. It signals a
	// security incident and must never be retried or ignored.
	ErrIntegrityFailure = errors.New("envelope integrity failure")
)

// Envelope seals and opens byte payloads under purpose-scoped keys derived
// from the ring's versioned master keys. Operations are synchronous,
// CPU-bound, and safe for concurrent use.
type Envelope struct {
	ring *KeyRing
}

// NewEnvelope returns an Envelope backed by ring.
func NewEnvelope(ring *KeyRing) (*Envelope, error) {
	if ring == nil {
		return nil, fmt.Errorf("%w: nil ring", ErrInvalidKeyRing)
	}
	return &Envelope{ring: ring}, nil
}

// Encrypt seals plaintext for purpose under the ring's current key version
// with a fresh random nonce. The version byte and purpose are bound into the
// authentication tag as additional authenticated data.
func (e *Envelope) Encrypt(plaintext []byte, purpose Purpose) ([]byte, error) {
	version := e.ring.CurrentVersion()
	aead, err := e.aead(version, purpose)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, envelopeNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	sealed := aead.Seal(nil, nonce, plaintext, envelopeAAD(version, purpose))
	// Seal appends the tag after the ciphertext; the envelope carries it
	// between the nonce and the ciphertext.
	split := len(sealed) - envelopeTagSize
	out := make([]byte, 0, envelopeOverhead+split)
	out = append(out, version)
	out = append(out, nonce...)
	out = append(out, sealed[split:]...)
	out = append(out, sealed[:split]...)
	return out, nil
}

// Decrypt opens an envelope produced by Encrypt with the same purpose.
// A version byte absent from the ring yields ErrUnknownKeyVersion; any
// truncation, corruption, or purpose mismatch yields ErrIntegrityFailure.
// There is no format negotiation: sizes must match exactly.
func (e *Envelope) Decrypt(envelope []byte, purpose Purpose) ([]byte, error) {
	if len(envelope) < envelopeVersionSize {
		return nil, ErrIntegrityFailure
	}
	version := envelope[0]
	if _, ok := e.ring.Key(version); !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKeyVersion, version)
	}
	if len(envelope) < envelopeOverhead {
		return nil, ErrIntegrityFailure
	}
	nonce := envelope[envelopeVersionSize : envelopeVersionSize+envelopeNonceSize]
	tag := envelope[envelopeVersionSize+envelopeNonceSize : envelopeOverhead]
	ciphertext := envelope[envelopeOverhead:]

	aead, err := e.aead(version, purpose)
	if err != nil {
		return nil, err
	}
	sealed := make([]byte, 0, len(ciphertext)+envelopeTagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := aead.Open(nil, nonce, sealed, envelopeAAD(version, purpose))
	if err != nil {
		return nil, ErrIntegrityFailure
	}
	return plaintext, nil
}

// aead builds the AES-256-GCM cipher for version and purpose. The working key
// is derived from the master key via HKDF-SHA256 with the purpose name as
// context, so a leaked working key is useless outside its purpose.
func (e *Envelope) aead(version byte, purpose Purpose) (cipher.AEAD, error) {
	master, ok := e.ring.Key(version)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKeyVersion, version)
	}
	derived := make([]byte, MasterKeySize)
	kdf := hkdf.New(sha256.New, master[:], nil, []byte(purpose.String()))
	if _, err := io.ReadFull(kdf, derived); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func envelopeAAD(version byte, purpose Purpose) []byte {
	return []byte{version, byte(purpose)}
}
