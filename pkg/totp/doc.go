// Package totp implements time-based one-time passwords (RFC 6238) on top of
// the HMAC-based algorithm from RFC 4226, together with the pieces needed to
// enroll an authenticator app: secret generation, otpauth:// provisioning URIs
// and QR code rendering.
//
// Codes produced here are interoperable with Google Authenticator, 1Password,
// Authy and other apps that follow the Key URI format:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
//
// Basic usage:
//
//	secret := totp.GenerateSecret()
//	uri, err := totp.BuildEnrollmentURI(secret, "alice", "Simple IDM", totp.DefaultConfig())
//	png, err := totp.RenderQRImage(uri)
//
//	// later, at login
//	ok := totp.VerifyCode(secret, submitted, time.Now().Unix(), totp.DefaultConfig())
package totp
