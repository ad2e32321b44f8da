// Package http provides HTTP routing, middleware wiring and JSON handlers
// for the ContactKeeper service.
package http

import (
	"net/http"

	"github.com/atinyakov/ContactKeeper/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP handler that serves the ContactKeeper API
// under /api.
//
// Middleware chain (applied in order):
//  1. WithRequestLogging(logger): request id and access log
//  2. Recoverer: turns panics into 500 responses
//  3. AllowContentType("application/json"): rejects non-JSON bodies
//  4. CertAuth: client certificate CommonName becomes the user id
//  5. EnsureUser(users): mirrors the user into storage
func NewRouter(
	authHandler *AuthHandler,
	contactHandler *ContactHandler,
	categoryHandler *CategoryHandler,
	users middleware.UserRegistrar,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.CertAuth)
	r.Use(middleware.EnsureUser(users, logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/me", authHandler.Me)
		r.Get("/states", States)

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", contactHandler.List)
			r.Post("/", contactHandler.Create)
			r.Get("/search", contactHandler.Search)
			r.Get("/{id}", contactHandler.Get)
			r.Put("/{id}", contactHandler.Edit)
			r.Delete("/{id}", contactHandler.Delete)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.List)
			r.Post("/", categoryHandler.Create)
			r.Delete("/{id}", categoryHandler.Delete)
			r.Put("/{id}/contacts/{contactId}", categoryHandler.Link)
			r.Delete("/{id}/contacts/{contactId}", categoryHandler.Unlink)
		})
	})

	return r
}
