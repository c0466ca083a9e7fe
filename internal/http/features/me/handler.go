package me

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-idm-mfa/internal/http/middleware"
	"github.com/tendant/simple-idm-mfa/internal/httputil"
	"github.com/tendant/simple-idm-mfa/pkg/auth"
	"github.com/tendant/simple-idm-mfa/pkg/domain"
)

// Handler handles user profile endpoints.
type Handler struct {
	logger     *slog.Logger
	mfaService *auth.MFAService
}

// NewHandler creates a new me handler.
func NewHandler(logger *slog.Logger, mfaService *auth.MFAService) *Handler {
	return &Handler{
		logger:     logger,
		mfaService: mfaService,
	}
}

// UserResponse represents the user profile response.
type UserResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	MFAEnabled bool      `json:"mfa_enabled"`
	CreatedAt  time.Time `json:"created_at"`
}

// RegisterRoutes registers profile routes behind the full-authentication gate.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireFullyAuthenticated()).Get("/v1/me", h.GetMe)
}

// GetMe returns the current user's profile.
// GET /v1/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.mfaService.CurrentUser(ctx, middleware.GetSessionID(ctx))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSessionState) || errors.Is(err, domain.ErrUserNotFound) {
			httputil.RedirectToLogin(w, "authentication required")
			return
		}
		h.logger.Error("failed to get user", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to get user")
		return
	}

	httputil.JSON(w, http.StatusOK, UserResponse{
		ID:         user.ID.String(),
		Username:   user.Username,
		MFAEnabled: user.MFAEnabled,
		CreatedAt:  user.CreatedAt,
	})
}
