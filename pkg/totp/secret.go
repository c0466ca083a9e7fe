package totp

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

// SecretSize is the length in bytes of generated secrets (160 bits, RFC 4226).
const SecretSize = 20

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret returns a fresh random secret of SecretSize bytes.
// It panics if the system random source fails, which is not recoverable.
func GenerateSecret() []byte {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		panic(fmt.Sprintf("totp: crypto/rand failed: %v", err))
	}
	return secret
}

// EncodeSecret returns the unpadded Base32 form used for manual entry and
// inside provisioning URIs.
func EncodeSecret(secret []byte) string {
	return b32.EncodeToString(secret)
}

// DecodeSecret parses a Base32 secret. Case, embedded spaces and trailing
// padding are tolerated since users type these by hand.
func DecodeSecret(s string) ([]byte, error) {
	clean := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	clean = strings.TrimRight(clean, "=")
	if clean == "" {
		return nil, ErrInvalidSecret
	}
	secret, err := b32.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return secret, nil
}
