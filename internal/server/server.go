// Package server exposes the local host API: vault lifecycle, credential
// CRUD, and password generation. It binds to loopback only; responses carry
// plaintext credentials for the shell's own UI surfaces.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nihmadev/Axion/internal/middleware"
	"github.com/nihmadev/Axion/internal/vault"
)

// maxRequestBodySize bounds JSON request bodies.
const maxRequestBodySize = 1 << 20

// Dependencies holds everything the router needs.
type Dependencies struct {
	Vault          *vault.Vault
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

// NewRouter creates and configures the HTTP router.
func NewRouter(deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Metrics())
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))
	if deps.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(deps.RequestTimeout))
	}

	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	h := &Handler{vault: deps.Vault, logger: deps.Logger}

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/vault", func(r chi.Router) {
			r.Get("/", h.VaultStatus)
			r.Post("/", h.CreateVault)
			r.Delete("/", h.DestroyVault)
			r.Post("/unlock", h.UnlockVault)
			r.Post("/lock", h.LockVault)
			r.Post("/rotate", h.RotateMasterPassword)
		})

		r.Route("/passwords", func(r chi.Router) {
			r.Get("/", h.ListPasswords)
			r.Post("/", h.AddPassword)
			r.Get("/for-url", h.PasswordsForURL)
			r.Get("/search", h.SearchPasswords)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPassword)
				r.Patch("/", h.UpdatePassword)
				r.Delete("/", h.DeletePassword)
			})
		})

		r.Post("/generate", h.GeneratePassword)
	})

	return r
}
