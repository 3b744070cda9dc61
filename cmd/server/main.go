package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"hirewire/backend/internal/config"
	"hirewire/backend/internal/db"
	identityservice "hirewire/backend/internal/identity/service"
	"hirewire/backend/internal/security"
	"hirewire/backend/internal/server"
	"hirewire/backend/internal/server/handler"
	"hirewire/backend/internal/server/middleware"
	sessionrepo "hirewire/backend/internal/session/repository"
	sessionservice "hirewire/backend/internal/session/service"
	"hirewire/backend/internal/telemetry"
	"hirewire/backend/internal/telemetry/otel"
	userrepo "hirewire/backend/internal/user/repository"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "hirewire-api", cfg.OTLPInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()
	events := telemetry.NewSecurityEvents(providers.LoggerProvider)

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	var users userrepo.Repository = userrepo.NewPostgresRepository(pool)

	var store sessionrepo.Store
	switch cfg.SessionStore {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer client.Close()
		store = sessionrepo.NewRedisStore(client)
	default:
		store = sessionrepo.NewPostgresStore(pool)
	}

	sessions, err := sessionservice.NewService(cfg.SessionPolicy(), store, users, events)
	if err != nil {
		return fmt.Errorf("sessions: %w", err)
	}

	encoded, err := cfg.EncryptionKeyMap()
	if err != nil {
		return err
	}
	ring, err := security.NewKeyRing(encoded, byte(cfg.EncryptionCurrentKeyVersion))
	if err != nil {
		return fmt.Errorf("key ring: %w", err)
	}
	codec, err := security.NewEnvelope(ring)
	if err != nil {
		return fmt.Errorf("envelope: %w", err)
	}
	emailKey, err := decodeEmailHashKey(cfg.EmailHashKey)
	if err != nil {
		return err
	}
	emails, err := security.NewEmailHasher(emailKey)
	if err != nil {
		return fmt.Errorf("email hasher: %w", err)
	}

	privPEM, err := security.LoadPEM(cfg.AssertionPrivateKey)
	if err != nil {
		return fmt.Errorf("assertion private key: %w", err)
	}
	signer, err := security.ParsePrivateKey(string(privPEM))
	if err != nil {
		return fmt.Errorf("assertion private key: %w", err)
	}
	issuer, err := security.NewAssertionIssuer(signer)
	if err != nil {
		return fmt.Errorf("assertion issuer: %w", err)
	}
	pubPEM, err := security.LoadPEM(cfg.AssertionPublicKey)
	if err != nil {
		return fmt.Errorf("assertion public key: %w", err)
	}
	pub, err := security.ParsePublicKey(string(pubPEM))
	if err != nil {
		return fmt.Errorf("assertion public key: %w", err)
	}
	verifier, err := security.NewAssertionVerifier(pub)
	if err != nil {
		return fmt.Errorf("assertion verifier: %w", err)
	}

	auth := identityservice.NewAuthService(users, sessions, security.NewHasher(cfg.BcryptCost), emails, codec)

	authLimit := middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)
	defer authLimit.Close()

	router := server.NewRouter(server.Deps{
		Auth:      handler.NewAuthHandler(auth, issuer, events),
		Internal:  handler.NewInternalHandler(users, auth, events),
		Sessions:  sessions,
		Verifier:  verifier,
		AuthLimit: authLimit,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("HTTP server stopped")
	return nil
}

// decodeEmailHashKey accepts base64 key material and falls back to the raw
// string so local setups can use a plain secret.
func decodeEmailHashKey(s string) ([]byte, error) {
	if s == "" {
		return nil, errors.New("EMAIL_HASH_KEY is not set")
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) > 0 {
		return b, nil
	}
	return []byte(s), nil
}
