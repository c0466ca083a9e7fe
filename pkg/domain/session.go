package domain

import "time"

// Phase is the authentication progress of a single login session.
type Phase string

const (
	PhaseUnauthenticated Phase = "unauthenticated"
	PhasePrimaryOK       Phase = "primary_ok"
	PhaseMFAVerified     Phase = "mfa_verified"
)

// AuthState is the server-side state of one session. Phase is the only
// source of truth for access decisions.
type AuthState struct {
	PrimaryUser string    `json:"primary_user,omitempty"`
	Phase       Phase     `json:"phase"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Unauthenticated returns the state of a session with no identity.
func Unauthenticated() AuthState {
	return AuthState{Phase: PhaseUnauthenticated}
}

// IsFullyAuthenticated is the gate for every protected operation.
func (s AuthState) IsFullyAuthenticated() bool {
	return s.Phase == PhaseMFAVerified && s.PrimaryUser != ""
}

// IsUser reports whether the session has passed primary login as username.
func (s AuthState) IsUser(username string) bool {
	if s.PrimaryUser == "" || s.PrimaryUser != username {
		return false
	}
	return s.Phase == PhasePrimaryOK || s.Phase == PhaseMFAVerified
}
