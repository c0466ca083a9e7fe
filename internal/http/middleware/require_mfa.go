package middleware

import (
	"net/http"

	"github.com/tendant/simple-idm-mfa/internal/httputil"
)

// RequireFullyAuthenticated lets a request through only when its session has
// completed every required factor. Apply it after Session.
//
//	r.With(middleware.RequireFullyAuthenticated()).Get("/v1/me", meHandler.GetMe)
func RequireFullyAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !GetAuthState(r.Context()).IsFullyAuthenticated() {
				httputil.RedirectToLogin(w, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
