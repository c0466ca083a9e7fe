package mfa

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-idm-mfa/internal/http/middleware"
	"github.com/tendant/simple-idm-mfa/internal/httputil"
	"github.com/tendant/simple-idm-mfa/pkg/auth"
	"github.com/tendant/simple-idm-mfa/pkg/domain"
	"github.com/tendant/simple-idm-mfa/pkg/totp"
)

const homePath = "/home"

// Handler handles MFA-related HTTP requests
type Handler struct {
	logger     *slog.Logger
	mfaService *auth.MFAService
}

// NewHandler creates a new MFA handler
func NewHandler(logger *slog.Logger, mfaService *auth.MFAService) *Handler {
	return &Handler{
		logger:     logger,
		mfaService: mfaService,
	}
}

// ChallengeRequest carries the code from the authenticator app
type ChallengeRequest struct {
	Code string `json:"code"`
}

// ChallengeResponse represents the challenge page state or its outcome
type ChallengeResponse struct {
	Status   string `json:"status"`
	Redirect string `json:"redirect,omitempty"`
}

// EnrollResponse represents the response body for MFA enrollment
type EnrollResponse struct {
	Secret  string `json:"secret"`
	URI     string `json:"uri"`
	QRCode  string `json:"qr_code,omitempty"`
	QRError string `json:"qr_error,omitempty"`
}

// StatusResponse represents the response body for MFA status
type StatusResponse struct {
	MFAEnabled bool `json:"mfa_enabled"`
}

// Challenge reports whether the session is waiting for a TOTP code.
// GET /v1/auth/mfa/challenge
func (h *Handler) Challenge(w http.ResponseWriter, r *http.Request) {
	if middleware.GetAuthState(r.Context()).Phase != domain.PhasePrimaryOK {
		httputil.RedirectToLogin(w, "no pending MFA challenge")
		return
	}
	httputil.JSON(w, http.StatusOK, ChallengeResponse{Status: "pending"})
}

// SubmitChallenge checks a TOTP code for a session awaiting its second factor.
// POST /v1/auth/mfa/challenge
func (h *Handler) SubmitChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := middleware.GetSessionID(ctx)
	if sid == "" {
		httputil.RedirectToLogin(w, "no pending MFA challenge")
		return
	}

	var req ChallengeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequestBody(w, err)
		return
	}

	result, err := h.mfaService.SubmitChallenge(ctx, sid, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSessionState):
			httputil.RedirectToLogin(w, "no pending MFA challenge")
		case errors.Is(err, domain.ErrMFANotConfigured):
			httputil.Error(w, http.StatusUnauthorized, "authentication failed")
		default:
			h.logger.Error("failed to verify MFA code", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "verification failed")
		}
		return
	}

	if result == domain.ChallengeRejected {
		httputil.Error(w, http.StatusUnauthorized, domain.ErrInvalidMFACode.Error())
		return
	}

	httputil.JSON(w, http.StatusOK, ChallengeResponse{
		Status:   "verified",
		Redirect: homePath,
	})
}

// Enroll binds a new TOTP secret to the signed-in account, replacing any
// previous one.
// POST /v1/me/mfa/enroll
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := middleware.GetSessionID(ctx)
	state := middleware.GetAuthState(ctx)

	enrollment, err := h.mfaService.EnrollMFA(ctx, sid, state.PrimaryUser)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSessionState) || errors.Is(err, domain.ErrUserNotFound) {
			httputil.RedirectToLogin(w, "authentication required")
			return
		}
		h.logger.Error("failed to enroll MFA", "error", err, "username", state.PrimaryUser)
		httputil.Error(w, http.StatusInternalServerError, "failed to enroll MFA")
		return
	}

	resp := EnrollResponse{
		Secret: enrollment.SecretText,
		URI:    enrollment.URI,
	}
	if enrollment.QRError != nil {
		resp.QRError = "QR code unavailable; enter the secret manually"
	} else {
		resp.QRCode = totp.DataURI(enrollment.QRCode)
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// Disable turns MFA off for the signed-in account.
// POST /v1/me/mfa/disable
func (h *Handler) Disable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := middleware.GetSessionID(ctx)
	state := middleware.GetAuthState(ctx)

	if err := h.mfaService.DisableMFA(ctx, sid, state.PrimaryUser); err != nil {
		if errors.Is(err, domain.ErrInvalidSessionState) || errors.Is(err, domain.ErrUserNotFound) {
			httputil.RedirectToLogin(w, "authentication required")
			return
		}
		h.logger.Error("failed to disable MFA", "error", err, "username", state.PrimaryUser)
		httputil.Error(w, http.StatusInternalServerError, "failed to disable MFA")
		return
	}

	httputil.JSON(w, http.StatusOK, StatusResponse{MFAEnabled: false})
}

// Status reports whether MFA is enabled for the signed-in account.
// GET /v1/me/mfa/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.mfaService.CurrentUser(ctx, middleware.GetSessionID(ctx))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSessionState) || errors.Is(err, domain.ErrUserNotFound) {
			httputil.RedirectToLogin(w, "authentication required")
			return
		}
		h.logger.Error("failed to get MFA status", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to get MFA status")
		return
	}

	httputil.JSON(w, http.StatusOK, StatusResponse{MFAEnabled: user.MFAEnabled})
}
