package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MasterKeySize is the required length of every master key in the ring.
const MasterKeySize = 32

// ErrInvalidKeyRing is returned when key-ring material is missing or malformed.
var ErrInvalidKeyRing = errors.New("invalid key ring")

// KeyRing is an immutable table of versioned master keys plus the version used
// for new encryptions. It is built once at startup and never mutated; rotation
// means redeploying with an added version and a new current pointer, so a ring
// is safe for unsynchronized concurrent reads.
type KeyRing struct {
	keys    map[byte][MasterKeySize]byte
	current byte
}

// NewKeyRing builds a KeyRing from standard-base64 keys indexed by version.
// Every key must decode to exactly MasterKeySize bytes and current must name
// one of the given versions. Any defect is fatal here, never at first use.
func NewKeyRing(encoded map[byte]string, current byte) (*KeyRing, error) {
	if len(encoded) == 0 {
		return nil, fmt.Errorf("%w: no key versions configured", ErrInvalidKeyRing)
	}
	keys := make(map[byte][MasterKeySize]byte, len(encoded))
	for version, b64 := range encoded {
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
		if err != nil {
			return nil, fmt.Errorf("%w: version %d is not valid base64", ErrInvalidKeyRing, version)
		}
		if len(raw) != MasterKeySize {
			return nil, fmt.Errorf("%w: version %d must be %d bytes, got %d", ErrInvalidKeyRing, version, MasterKeySize, len(raw))
		}
		var k [MasterKeySize]byte
		copy(k[:], raw)
		keys[version] = k
	}
	if _, ok := keys[current]; !ok {
		return nil, fmt.Errorf("%w: current version %d has no key", ErrInvalidKeyRing, current)
	}
	return &KeyRing{keys: keys, current: current}, nil
}

// CurrentVersion returns the version new envelopes are sealed under.
func (r *KeyRing) CurrentVersion() byte {
	return r.current
}

// Key returns the master key for version and whether the version exists.
func (r *KeyRing) Key(version byte) ([MasterKeySize]byte, bool) {
	k, ok := r.keys[version]
	return k, ok
}

// Versions returns the versions present in the ring, ascending.
func (r *KeyRing) Versions() []byte {
	out := make([]byte, 0, len(r.keys))
	for v := range r.keys {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
