package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tendant/simple-idm-mfa/internal/config"
	"github.com/tendant/simple-idm-mfa/internal/http/features/me"
	"github.com/tendant/simple-idm-mfa/internal/http/features/mfa"
	"github.com/tendant/simple-idm-mfa/internal/http/features/password"
	"github.com/tendant/simple-idm-mfa/internal/http/features/session"
	"github.com/tendant/simple-idm-mfa/internal/http/middleware"
	"github.com/tendant/simple-idm-mfa/internal/httputil"
	"github.com/tendant/simple-idm-mfa/pkg/auth"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger             *slog.Logger
	PasswordService    *auth.PasswordService
	MFAService         *auth.MFAService
	RateLimitConfig    config.RateLimitConfig
	SecurityHeaders    config.SecurityHeadersConfig
	MaxRequestBodySize int64
	Cookie             httputil.CookieConfig
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBodySize))
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(cfg.MFAService, cfg.Logger))

		// Password checks are rate limited; TOTP attempts are not.
		passwordHandler := password.NewHandler(cfg.Logger, cfg.PasswordService, cfg.MFAService, cfg.Cookie)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthRateLimit(cfg.RateLimitConfig, cfg.Logger))
			passwordHandler.RegisterRoutes(r)
		})

		mfa.NewHandler(cfg.Logger, cfg.MFAService).RegisterRoutes(r)
		session.NewHandler(cfg.Logger, cfg.MFAService, cfg.Cookie).RegisterRoutes(r)
		me.NewHandler(cfg.Logger, cfg.MFAService).RegisterRoutes(r)
	})

	return r
}
