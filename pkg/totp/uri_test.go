package totp_test

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/pquerna/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-idm-mfa/pkg/totp"
)

func TestBuildEnrollmentURI(t *testing.T) {
	t.Parallel()

	secret, err := totp.DecodeSecret("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	uri, err := totp.BuildEnrollmentURI(secret, "alice", "App", totp.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t,
		"otpauth://totp/App:alice?secret=JBSWY3DPEHPK3PXP&issuer=App&algorithm=SHA1&digits=6&period=30",
		uri)
}

func TestBuildEnrollmentURI_Escaping(t *testing.T) {
	t.Parallel()

	secret := totp.GenerateSecret()
	uri, err := totp.BuildEnrollmentURI(secret, "alice@example.com", "Simple IDM", totp.DefaultConfig())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(uri, "otpauth://totp/Simple%20IDM:alice@example.com?"), uri)
	assert.Contains(t, uri, "&issuer=Simple%20IDM&")

	uri, err = totp.BuildEnrollmentURI(secret, "bob smith", "A&B", totp.DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, uri, "/A&B:bob%20smith?")
	assert.Contains(t, uri, "&issuer=A%26B&")
}

func TestBuildEnrollmentURI_NoIssuer(t *testing.T) {
	t.Parallel()

	uri, err := totp.BuildEnrollmentURI([]byte("12345678901234567890"), "alice", "", totp.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "otpauth://totp/alice?secret=GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ&algorithm=SHA1&digits=6&period=30", uri)
}

func TestBuildEnrollmentURI_Errors(t *testing.T) {
	t.Parallel()

	secret := totp.GenerateSecret()
	cfg := totp.DefaultConfig()

	_, err := totp.BuildEnrollmentURI(nil, "alice", "App", cfg)
	assert.ErrorIs(t, err, totp.ErrInvalidSecret)

	_, err = totp.BuildEnrollmentURI(secret, "", "App", cfg)
	assert.ErrorIs(t, err, totp.ErrMissingLabel)

	_, err = totp.BuildEnrollmentURI(secret, "a:b", "App", cfg)
	assert.ErrorIs(t, err, totp.ErrInvalidLabel)

	_, err = totp.BuildEnrollmentURI(secret, "alice", "App:x", cfg)
	assert.ErrorIs(t, err, totp.ErrInvalidLabel)

	_, err = totp.BuildEnrollmentURI(secret, "alice", "App", totp.Config{Digits: 4})
	assert.ErrorIs(t, err, totp.ErrInvalidConfig)
}

func TestParseEnrollmentURI_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := totp.GenerateSecret()
	cfg := totp.Config{Digits: 8, Period: 60, Skew: totp.DefaultSkew, Algorithm: totp.AlgorithmSHA256}

	uri, err := totp.BuildEnrollmentURI(secret, "alice@example.com", "Simple IDM", cfg)
	require.NoError(t, err)

	key, err := totp.ParseEnrollmentURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "Simple IDM", key.Issuer)
	assert.Equal(t, "alice@example.com", key.Label)
	assert.Equal(t, secret, key.Secret)
	assert.Equal(t, cfg, key.Config)
}

func TestParseEnrollmentURI_Defaults(t *testing.T) {
	t.Parallel()

	key, err := totp.ParseEnrollmentURI("otpauth://totp/alice?secret=JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	assert.Empty(t, key.Issuer)
	assert.Equal(t, "alice", key.Label)
	assert.Equal(t, totp.DefaultConfig(), key.Config)
}

func TestParseEnrollmentURI_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		uri  string
		want error
	}{
		{"wrong scheme", "https://totp/App:alice?secret=JBSWY3DPEHPK3PXP", totp.ErrInvalidURI},
		{"hotp", "otpauth://hotp/App:alice?secret=JBSWY3DPEHPK3PXP", totp.ErrInvalidURI},
		{"no label", "otpauth://totp/?secret=JBSWY3DPEHPK3PXP", totp.ErrMissingLabel},
		{"no secret", "otpauth://totp/App:alice", totp.ErrInvalidSecret},
		{"bad algorithm", "otpauth://totp/alice?secret=JBSWY3DPEHPK3PXP&algorithm=MD5", totp.ErrInvalidConfig},
		{"bad digits", "otpauth://totp/alice?secret=JBSWY3DPEHPK3PXP&digits=six", totp.ErrInvalidURI},
		{"bad period", "otpauth://totp/alice?secret=JBSWY3DPEHPK3PXP&period=0", totp.ErrInvalidURI},
		{"issuer mismatch", "otpauth://totp/App:alice?secret=JBSWY3DPEHPK3PXP&issuer=Other", totp.ErrInvalidURI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := totp.ParseEnrollmentURI(tt.uri)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// Authenticator apps must read back exactly what was enrolled.
func TestBuildEnrollmentURI_ReadableByPquernaOTP(t *testing.T) {
	t.Parallel()

	secret := totp.GenerateSecret()
	uri, err := totp.BuildEnrollmentURI(secret, "alice@example.com", "Simple IDM", totp.DefaultConfig())
	require.NoError(t, err)

	key, err := otp.NewKeyFromURL(uri)
	require.NoError(t, err)
	assert.Equal(t, "totp", key.Type())
	assert.Equal(t, "Simple IDM", key.Issuer())
	assert.Equal(t, "alice@example.com", key.AccountName())
	assert.Equal(t, totp.EncodeSecret(secret), key.Secret())
	assert.Equal(t, uint64(30), key.Period())
	assert.Equal(t, otp.DigitsSix, key.Digits())
	assert.Equal(t, otp.AlgorithmSHA1, key.Algorithm())
}

func TestRenderQRImage(t *testing.T) {
	t.Parallel()

	uri, err := totp.BuildEnrollmentURI(totp.GenerateSecret(), "alice", "App", totp.DefaultConfig())
	require.NoError(t, err)

	img, err := totp.RenderQRImage(uri)
	require.NoError(t, err)
	require.NotEmpty(t, img)

	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, totp.DefaultQRSize, decoded.Bounds().Dx())

	again, err := totp.RenderQRImage(uri)
	require.NoError(t, err)
	assert.Equal(t, img, again, "rendering must be deterministic")

	dataURI := totp.DataURI(img)
	assert.True(t, strings.HasPrefix(dataURI, "data:image/png;base64,"))
}

func TestRenderQRImage_Errors(t *testing.T) {
	t.Parallel()

	_, err := totp.RenderQRImage("")
	assert.ErrorIs(t, err, totp.ErrEncoding)

	// Well beyond the capacity of a version 40 symbol.
	_, err = totp.RenderQRImage(strings.Repeat("x", 8000))
	assert.ErrorIs(t, err, totp.ErrEncoding)
}
