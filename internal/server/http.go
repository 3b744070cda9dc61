// Package server assembles the HTTP router.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"hirewire/backend/internal/security"
	"hirewire/backend/internal/server/handler"
	"hirewire/backend/internal/server/middleware"
)

// Deps holds everything the router needs.
type Deps struct {
	Auth      *handler.AuthHandler
	Internal  *handler.InternalHandler
	Sessions  middleware.SessionViews
	Verifier  *security.AssertionVerifier
	AuthLimit *middleware.RateLimiter
}

// NewRouter wires handlers and middleware into the public router. Login and
// register sit behind the per-IP rate limiter; everything under the session
// group requires a valid cookie; internal routes authenticate via the
// assertion header instead.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", handler.Health)

	r.Group(func(r chi.Router) {
		r.Use(d.AuthLimit.Handler)
		r.Post("/auth/register", d.Auth.Register)
		r.Post("/auth/login", d.Auth.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(d.Sessions))
		r.Post("/auth/logout", d.Auth.Logout)
		r.Get("/auth/assertion", d.Auth.Assertion)
		r.Get("/me", d.Auth.Me)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.VerifyAssertion(d.Verifier))
		r.Get("/internal/users/{id}", d.Internal.GetUser)
	})

	return r
}
