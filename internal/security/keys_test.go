package security

import (
	"errors"
	"testing"
)

func TestParsePrivateKey(t *testing.T) {
	signer, err := ParsePrivateKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	if signer == nil {
		t.Fatal("ParsePrivateKey returned nil signer")
	}
}

func TestParsePublicKey(t *testing.T) {
	pub, err := ParsePublicKey(testPublicKeyPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if pub == nil {
		t.Fatal("ParsePublicKey returned nil key")
	}
}

func TestParseKeys_Invalid(t *testing.T) {
	for _, s := range []string{"", "   ", "-----BEGIN GARBAGE-----\nzzzz\n-----END GARBAGE-----"} {
		if _, err := ParsePrivateKey(s); err == nil {
			t.Errorf("ParsePrivateKey(%q): want error", s)
		}
		if _, err := ParsePublicKey(s); err == nil {
			t.Errorf("ParsePublicKey(%q): want error", s)
		}
	}
}

func TestLoadPEM_Empty(t *testing.T) {
	if _, err := LoadPEM(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("LoadPEM(\"\"): want ErrInvalidKey, got %v", err)
	}
}

func TestLoadPEM_Inline(t *testing.T) {
	b, err := LoadPEM(testPublicKeyPEM)
	if err != nil {
		t.Fatalf("LoadPEM: %v", err)
	}
	if len(b) == 0 {
		t.Fatal("LoadPEM returned empty bytes")
	}
}
