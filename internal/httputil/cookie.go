package httputil

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the opaque session ID.
const SessionCookieName = "sid"

// CookieConfig holds cookie configuration.
type CookieConfig struct {
	Domain   string
	Path     string
	Secure   bool // true behind HTTPS
	SameSite http.SameSite
	TTL      time.Duration
}

// DefaultCookieConfig returns default cookie configuration.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		TTL:      12 * time.Hour,
	}
}

// SetSessionCookie stores the session ID in an HttpOnly cookie that lives
// as long as the server-side session.
func SetSessionCookie(w http.ResponseWriter, sid string, cfg CookieConfig) {
	http.SetCookie(w, sessionCookie(sid, int(cfg.TTL.Seconds()), cfg))
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, sessionCookie("", -1, cfg))
}

func sessionCookie(value string, maxAge int, cfg CookieConfig) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	}
}

// GetSessionID extracts the session ID from the request cookie.
func GetSessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
