package mfa

import (
	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-idm-mfa/internal/http/middleware"
)

// RegisterRoutes registers the challenge routes and the MFA management
// routes. Management requires a fully authenticated session.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/v1/auth/mfa/challenge", h.Challenge)
	r.Post("/v1/auth/mfa/challenge", h.SubmitChallenge)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireFullyAuthenticated())
		r.Get("/v1/me/mfa/status", h.Status)
		r.With(middleware.NoStore).Post("/v1/me/mfa/enroll", h.Enroll)
		r.Post("/v1/me/mfa/disable", h.Disable)
	})
}
