package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-idm-mfa/internal/httputil"
	"github.com/tendant/simple-idm-mfa/pkg/domain"
)

type contextKey string

const (
	// SessionIDKey is the context key for the session ID from the cookie.
	SessionIDKey contextKey = "session_id"
	// AuthStateKey is the context key for the session's authentication state.
	AuthStateKey contextKey = "auth_state"
)

// StateLoader reads a session's authentication state. Unknown sessions are
// unauthenticated, not errors.
type StateLoader interface {
	State(ctx context.Context, sid string) (domain.AuthState, error)
}

// Session loads the authentication state for the request's session cookie
// and stores it in the context. Requests without a cookie carry an empty
// session ID and an unauthenticated state.
func Session(loader StateLoader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := domain.Unauthenticated()
			sid, ok := httputil.GetSessionID(r)
			if ok {
				loaded, err := loader.State(r.Context(), sid)
				if err != nil {
					logger.Error("failed to load session", "error", err, "path", r.URL.Path)
					httputil.Error(w, http.StatusInternalServerError, "session unavailable")
					return
				}
				state = loaded
			}

			ctx := context.WithValue(r.Context(), SessionIDKey, sid)
			ctx = context.WithValue(ctx, AuthStateKey, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionID extracts the session ID from the request context.
func GetSessionID(ctx context.Context) string {
	sid, _ := ctx.Value(SessionIDKey).(string)
	return sid
}

// GetAuthState extracts the authentication state from the request context.
func GetAuthState(ctx context.Context) domain.AuthState {
	state, ok := ctx.Value(AuthStateKey).(domain.AuthState)
	if !ok {
		return domain.Unauthenticated()
	}
	return state
}
