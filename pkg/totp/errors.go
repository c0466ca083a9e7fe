package totp

import "errors"

var (
	ErrInvalidConfig = errors.New("totp: invalid config")
	ErrInvalidSecret = errors.New("totp: invalid secret")
	ErrMissingLabel  = errors.New("totp: missing account label")
	ErrInvalidLabel  = errors.New("totp: label and issuer must not contain ':'")
	ErrInvalidURI    = errors.New("totp: invalid otpauth URI")

	// ErrEncoding is returned when the provisioning URI cannot be rendered
	// as a QR code, e.g. because it exceeds the symbol capacity.
	ErrEncoding = errors.New("totp: QR encoding failed")
)
