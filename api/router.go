package api

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StatsProvider samples live figures for the debug endpoint.
type StatsProvider func() any

// NewRouter exposes the account API and mounts the relay socket on /ws.
// The socket handler authenticates its own handshake.
func NewRouter(accounts *AccountHandler, verifier contract.ICredentialVerifier, socket http.Handler, stats StatsProvider) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/register", accounts.Register)
	r.Post("/login", accounts.Login)
	r.Handle("/ws", socket)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier))

		r.Get("/me", accounts.Profile)
		r.Put("/me/username", accounts.ChangeUsername)
		r.Put("/me/password", accounts.ChangePassword)
		r.Get("/debug/stats", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, stats())
		})
	})

	return r
}
