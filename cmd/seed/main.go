// seed inserts development sample accounts for local testing.
// Idempotent: skips accounts whose email is already registered.
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"time"

	"hirewire/backend/internal/config"
	"hirewire/backend/internal/db"
	identityservice "hirewire/backend/internal/identity/service"
	"hirewire/backend/internal/security"
	sessionrepo "hirewire/backend/internal/session/repository"
	sessionservice "hirewire/backend/internal/session/service"
	userrepo "hirewire/backend/internal/user/repository"
)

const devPassword = "Dev-Password-123!"

var devAccounts = []struct {
	email, name, role string
}{
	{"admin@example.com", "Dev Admin", "admin"},
	{"employer@example.com", "Dev Employer", "employer"},
	{"seeker@example.com", "Dev Seeker", "seeker"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	users := userrepo.NewPostgresRepository(pool)
	sessions, err := sessionservice.NewService(cfg.SessionPolicy(), sessionrepo.NewPostgresStore(pool), users, nil)
	if err != nil {
		log.Fatalf("sessions: %v", err)
	}

	encoded, err := cfg.EncryptionKeyMap()
	if err != nil {
		log.Fatalf("%v", err)
	}
	ring, err := security.NewKeyRing(encoded, byte(cfg.EncryptionCurrentKeyVersion))
	if err != nil {
		log.Fatalf("key ring: %v", err)
	}
	codec, err := security.NewEnvelope(ring)
	if err != nil {
		log.Fatalf("envelope: %v", err)
	}
	emailKey := []byte(cfg.EmailHashKey)
	if b, err := base64.StdEncoding.DecodeString(cfg.EmailHashKey); err == nil && len(b) > 0 {
		emailKey = b
	}
	emails, err := security.NewEmailHasher(emailKey)
	if err != nil {
		log.Fatalf("email hasher: %v", err)
	}

	auth := identityservice.NewAuthService(users, sessions, security.NewHasher(cfg.BcryptCost), emails, codec)

	now := time.Now().UTC()
	for _, a := range devAccounts {
		view, err := auth.Register(ctx, now, a.email, devPassword, a.name, a.role, false)
		if errors.Is(err, identityservice.ErrEmailAlreadyRegistered) {
			log.Printf("seed: %s already exists, skipping", a.email)
			continue
		}
		if err != nil {
			log.Fatalf("seed %s: %v", a.email, err)
		}
		// Registration mints a session; the seeder has no use for it.
		if err := auth.Logout(ctx, now, view.SessionID); err != nil {
			log.Printf("seed: revoke bootstrap session for %s: %v", a.email, err)
		}
		log.Printf("seed: created %s (%s)", a.email, a.role)
	}
}
