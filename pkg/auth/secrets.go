package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/tendant/simple-idm-mfa/pkg/totp"
)

// SecretCodec converts a raw TOTP secret to and from its stored form.
// Open(Seal(s)) must return s exactly.
type SecretCodec interface {
	Seal(secret []byte) (string, error)
	Open(stored string) ([]byte, error)
}

const sealedPrefix = "aesgcm:"

var ErrSealedSecret = errors.New("stored MFA secret is encrypted and no key is configured")

// PlainSecretCodec stores secrets as unpadded Base32.
type PlainSecretCodec struct{}

func (PlainSecretCodec) Seal(secret []byte) (string, error) {
	return totp.EncodeSecret(secret), nil
}

func (PlainSecretCodec) Open(stored string) ([]byte, error) {
	if strings.HasPrefix(stored, sealedPrefix) {
		return nil, ErrSealedSecret
	}
	return totp.DecodeSecret(stored)
}

// AESGCMSecretCodec encrypts secrets with AES-256-GCM. The stored form is
// "aesgcm:" followed by base64(nonce || ciphertext). Values without the
// prefix are read as plain Base32 so secrets enrolled before a key was
// configured keep working.
type AESGCMSecretCodec struct {
	aead cipher.AEAD
}

// NewAESGCMSecretCodec requires a 32-byte key.
func NewAESGCMSecretCodec(key []byte) (*AESGCMSecretCodec, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &AESGCMSecretCodec{aead: gcm}, nil
}

func (c *AESGCMSecretCodec) Seal(secret []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	ciphertext := c.aead.Seal(nonce, nonce, secret, nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (c *AESGCMSecretCodec) Open(stored string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(stored, sealedPrefix)
	if !ok {
		return totp.DecodeSecret(stored)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	if len(ciphertext) < c.aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:c.aead.NonceSize()], ciphertext[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}
