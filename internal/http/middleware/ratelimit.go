package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/tendant/simple-idm-mfa/internal/config"
	"github.com/tendant/simple-idm-mfa/internal/httputil"
)

// RateLimitConfig is one limiter: Requests per Window for each client IP.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
}

// RateLimit rejects a client IP with 429 once it exceeds cfg.Requests within
// cfg.Window. Rejections are logged when cfg.Logger is set.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				ip, _ := httprate.KeyByIP(r)
				cfg.Logger.Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
					"method", r.Method,
					"user_agent", r.UserAgent(),
				)
			}
			httputil.Error(w, http.StatusTooManyRequests, "too many attempts, try again later")
		}),
	)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// AuthRateLimit limits login and registration attempts per client IP.
// Disabled configuration yields a no-op.
func AuthRateLimit(cfg config.RateLimitConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return NoRateLimit()
	}
	return RateLimit(RateLimitConfig{
		Requests: cfg.AuthRequests,
		Window:   cfg.AuthWindow,
		Logger:   logger,
	})
}
