package auth

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/tendant/simple-idm-mfa/pkg/totp"
)

func testKey(seed byte) []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = seed + byte(i)
	}
	return key
}

func TestAESGCMSecretCodec_RoundTrip(t *testing.T) {
	codec, err := NewAESGCMSecretCodec(testKey(0))
	if err != nil {
		t.Fatalf("NewAESGCMSecretCodec() error = %v", err)
	}

	for _, secret := range [][]byte{
		totp.GenerateSecret(),
		[]byte("12345678901234567890"),
		{0x00},
	} {
		sealed, err := codec.Seal(secret)
		if err != nil {
			t.Fatalf("Seal() error = %v", err)
		}
		opened, err := codec.Open(sealed)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if !bytes.Equal(opened, secret) {
			t.Errorf("Open(Seal(%x)) = %x", secret, opened)
		}
	}
}

func TestAESGCMSecretCodec_DifferentCiphertexts(t *testing.T) {
	codec, _ := NewAESGCMSecretCodec(testKey(0))
	secret := totp.GenerateSecret()

	a, _ := codec.Seal(secret)
	b, _ := codec.Seal(secret)
	if a == b {
		t.Error("sealing twice must use fresh nonces")
	}
}

func TestAESGCMSecretCodec_Rejects(t *testing.T) {
	codec, _ := NewAESGCMSecretCodec(testKey(0))
	other, _ := NewAESGCMSecretCodec(testKey(100))

	sealed, _ := codec.Seal(totp.GenerateSecret())

	if _, err := other.Open(sealed); err == nil {
		t.Error("wrong key must fail")
	}

	tampered := sealed[:len(sealed)-2] + "AA"
	if tampered != sealed {
		if _, err := codec.Open(tampered); err == nil {
			t.Error("tampered ciphertext must fail")
		}
	}

	for _, bad := range []string{sealedPrefix + "!!!", sealedPrefix + "AAAA"} {
		if _, err := codec.Open(bad); err == nil {
			t.Errorf("Open(%q) should fail", bad)
		}
	}

	if _, err := NewAESGCMSecretCodec([]byte("short")); err == nil {
		t.Error("short key must be refused")
	}
}

func TestSecretCodecs_ReadPlainSecrets(t *testing.T) {
	secret := totp.GenerateSecret()
	plain, _ := PlainSecretCodec{}.Seal(secret)
	if strings.HasPrefix(plain, sealedPrefix) {
		t.Fatalf("plain codec sealed the secret: %q", plain)
	}

	sealing, _ := NewAESGCMSecretCodec(testKey(0))
	for name, codec := range map[string]SecretCodec{"plain": PlainSecretCodec{}, "aesgcm": sealing} {
		got, err := codec.Open(plain)
		if err != nil {
			t.Fatalf("%s: Open() error = %v", name, err)
		}
		if !bytes.Equal(got, secret) {
			t.Errorf("%s: Open() = %x, want %x", name, got, secret)
		}
	}
}

func TestPlainSecretCodec_RefusesSealed(t *testing.T) {
	codec, _ := NewAESGCMSecretCodec(testKey(0))
	sealed, _ := codec.Seal(totp.GenerateSecret())

	if _, err := (PlainSecretCodec{}).Open(sealed); !errors.Is(err, ErrSealedSecret) {
		t.Errorf("error = %v, want ErrSealedSecret", err)
	}
}
