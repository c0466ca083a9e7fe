package password

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tendant/simple-idm-mfa/internal/http/middleware"
	"github.com/tendant/simple-idm-mfa/internal/httputil"
	"github.com/tendant/simple-idm-mfa/pkg/auth"
	"github.com/tendant/simple-idm-mfa/pkg/domain"
	"github.com/tendant/simple-idm-mfa/pkg/session"
)

const (
	homePath      = "/home"
	challengePath = "/mfa/verify"
)

// Handler handles password registration and login.
type Handler struct {
	logger          *slog.Logger
	passwordService *auth.PasswordService
	mfaService      *auth.MFAService
	cookieConfig    httputil.CookieConfig
}

// NewHandler creates a new password handler.
func NewHandler(
	logger *slog.Logger,
	passwordService *auth.PasswordService,
	mfaService *auth.MFAService,
	cookieConfig httputil.CookieConfig,
) *Handler {
	return &Handler{
		logger:          logger,
		passwordService: passwordService,
		mfaService:      mfaService,
		cookieConfig:    cookieConfig,
	}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterResponse represents a created account.
type RegisterResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse tells the client whether a second factor is needed.
type LoginResponse struct {
	Status   string `json:"status"`
	Redirect string `json:"redirect"`
}

// Register creates an account with MFA disabled.
// POST /v1/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequestBody(w, err)
		return
	}

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.passwordService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserAlreadyExists):
			httputil.Error(w, http.StatusConflict, "username already taken")
		case errors.Is(err, domain.ErrInvalidUsername):
			httputil.Error(w, http.StatusBadRequest, "invalid username format: must be 3-30 characters, alphanumeric/underscore/hyphen, start with alphanumeric")
		case errors.Is(err, domain.ErrWeakPassword):
			httputil.Error(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("registration failed", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	h.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	httputil.JSON(w, http.StatusCreated, RegisterResponse{
		ID:       user.ID.String(),
		Username: user.Username,
	})
}

// Login checks the password and starts a new session. Accounts with MFA
// enabled are sent to the TOTP challenge.
// POST /v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequestBody(w, err)
		return
	}

	if req.Username == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	ctx := r.Context()
	user, err := h.passwordService.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			httputil.Error(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		h.logger.Error("authentication failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	// New session ID on every login; the old one is dropped.
	if old := middleware.GetSessionID(ctx); old != "" {
		if err := h.mfaService.Logout(ctx, old); err != nil {
			h.logger.Warn("failed to drop previous session", "error", err)
		}
	}
	sid, err := session.NewID()
	if err != nil {
		h.logger.Error("failed to create session ID", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	outcome, err := h.mfaService.OnPrimaryLoginSuccess(ctx, sid, user.Username)
	if err != nil {
		h.logger.Error("failed to start session", "error", err, "username", user.Username)
		httputil.Error(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	httputil.SetSessionCookie(w, sid, h.cookieConfig)

	redirect := homePath
	if outcome == domain.LoginMFARequired {
		redirect = challengePath
	}
	h.logger.Info("primary login succeeded", "username", user.Username, "outcome", outcome)
	httputil.JSON(w, http.StatusOK, LoginResponse{
		Status:   string(outcome),
		Redirect: redirect,
	})
}
