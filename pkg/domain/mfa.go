package domain

// LoginOutcome tells the caller where to send the user after primary login.
type LoginOutcome string

const (
	// LoginComplete means the session is fully authenticated.
	LoginComplete LoginOutcome = "authenticated"
	// LoginMFARequired means the session awaits a TOTP code.
	LoginMFARequired LoginOutcome = "mfa_required"
)

// ChallengeResult is the outcome of a code submission. A rejected code is a
// normal result, not an error.
type ChallengeResult string

const (
	ChallengeAccepted ChallengeResult = "accepted"
	ChallengeRejected ChallengeResult = "rejected"
)

// MFAEnrollment is returned once when a secret is bound to an account.
type MFAEnrollment struct {
	Secret     []byte
	SecretText string // Base32, for manual entry
	URI        string // otpauth:// provisioning URI
	QRCode     []byte // PNG, nil when QRError is set
	QRError    error  // wraps ErrEncoding; the secret is still enrolled
}
