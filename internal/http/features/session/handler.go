package session

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-idm-mfa/internal/http/middleware"
	"github.com/tendant/simple-idm-mfa/internal/httputil"
	"github.com/tendant/simple-idm-mfa/pkg/auth"
)

// Handler handles session endpoints.
type Handler struct {
	logger       *slog.Logger
	mfaService   *auth.MFAService
	cookieConfig httputil.CookieConfig
}

// NewHandler creates a new session handler.
func NewHandler(logger *slog.Logger, mfaService *auth.MFAService, cookieConfig httputil.CookieConfig) *Handler {
	return &Handler{
		logger:       logger,
		mfaService:   mfaService,
		cookieConfig: cookieConfig,
	}
}

// RegisterRoutes registers session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/v1/auth/logout", h.Logout)
}

// Logout destroys the session's state and clears the cookie. It succeeds
// for requests without a session.
// POST /v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.mfaService.Logout(ctx, middleware.GetSessionID(ctx)); err != nil {
		h.logger.Error("failed to delete session", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "logout failed")
		return
	}

	httputil.ClearSessionCookie(w, h.cookieConfig)
	w.WriteHeader(http.StatusNoContent)
}
