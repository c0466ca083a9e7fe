// Package session keeps the authentication state of each login session on
// the server, keyed by an opaque session ID carried in a cookie.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/tendant/simple-idm-mfa/pkg/domain"
)

// Store persists AuthState per session ID. Get returns
// domain.ErrSessionNotFound or domain.ErrSessionExpired when there is no live
// state. Delete of a missing ID is not an error.
type Store interface {
	Get(ctx context.Context, id string) (domain.AuthState, error)
	Save(ctx context.Context, id string, state domain.AuthState) error
	Delete(ctx context.Context, id string) error
}

// NewID returns a random 256-bit session ID, URL-safe encoded.
func NewID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
