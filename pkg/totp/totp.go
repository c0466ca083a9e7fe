package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"hash"
	"strconv"
	"strings"
)

const (
	DefaultDigits    = 6
	DefaultPeriod    = 30
	DefaultSkew      = 1
	DefaultAlgorithm = AlgorithmSHA1

	minDigits = 6
	maxDigits = 8
)

// Algorithm names the HMAC digest, spelled as in otpauth URIs.
type Algorithm string

const (
	AlgorithmSHA1   Algorithm = "SHA1"
	AlgorithmSHA256 Algorithm = "SHA256"
	AlgorithmSHA512 Algorithm = "SHA512"
)

// ParseAlgorithm accepts the URI spelling in any case.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToUpper(strings.TrimSpace(s))); a {
	case AlgorithmSHA1, AlgorithmSHA256, AlgorithmSHA512:
		return a, nil
	}
	return "", fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidConfig, s)
}

func (a Algorithm) hash() func() hash.Hash {
	switch a {
	case AlgorithmSHA256:
		return sha256.New
	case AlgorithmSHA512:
		return sha512.New
	default:
		return sha1.New
	}
}

// Config holds the code parameters. Zero Digits, Period and Algorithm fall
// back to the defaults; a zero Skew means only the current step is accepted.
type Config struct {
	Digits    int
	Period    int // seconds per time step
	Skew      int // steps tolerated on either side of the current one
	Algorithm Algorithm
}

// DefaultConfig returns 6 digits, 30 second steps, SHA1 and a ±1 step window.
func DefaultConfig() Config {
	return Config{
		Digits:    DefaultDigits,
		Period:    DefaultPeriod,
		Skew:      DefaultSkew,
		Algorithm: DefaultAlgorithm,
	}
}

func (c Config) withDefaults() Config {
	if c.Digits == 0 {
		c.Digits = DefaultDigits
	}
	if c.Period == 0 {
		c.Period = DefaultPeriod
	}
	if c.Algorithm == "" {
		c.Algorithm = DefaultAlgorithm
	}
	return c
}

// Validate reports whether c (after defaults) describes a usable configuration.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.Digits < minDigits || c.Digits > maxDigits {
		return fmt.Errorf("%w: digits must be between %d and %d", ErrInvalidConfig, minDigits, maxDigits)
	}
	if c.Period < 0 {
		return fmt.Errorf("%w: period must be positive", ErrInvalidConfig)
	}
	if c.Skew < 0 {
		return fmt.Errorf("%w: skew must not be negative", ErrInvalidConfig)
	}
	if _, err := ParseAlgorithm(string(c.Algorithm)); err != nil {
		return err
	}
	return nil
}

// Step returns the time-step index floor(timestamp / period).
func Step(timestamp int64, period int) int64 {
	p := int64(period)
	q := timestamp / p
	if timestamp%p != 0 && timestamp < 0 {
		q--
	}
	return q
}

// ComputeCode returns the code for the step containing timestamp (unix
// seconds), zero-padded to cfg.Digits. It returns "" for an invalid config
// or a timestamp before the epoch.
func ComputeCode(secret []byte, timestamp int64, cfg Config) string {
	if cfg.Validate() != nil || timestamp < 0 {
		return ""
	}
	cfg = cfg.withDefaults()
	return hotp(secret, uint64(Step(timestamp, cfg.Period)), cfg)
}

// VerifyCode reports whether code matches any step within cfg.Skew of the
// step containing now. Malformed input yields false without computing any
// HMAC.
func VerifyCode(secret []byte, code string, now int64, cfg Config) bool {
	if cfg.Validate() != nil || now < 0 || len(secret) == 0 {
		return false
	}
	cfg = cfg.withDefaults()
	if len(code) != cfg.Digits || !isDigits(code) {
		return false
	}

	current := Step(now, cfg.Period)
	match := 0
	for i := -cfg.Skew; i <= cfg.Skew; i++ {
		step := current + int64(i)
		if step < 0 {
			continue
		}
		want := hotp(secret, uint64(step), cfg)
		match |= subtle.ConstantTimeCompare([]byte(want), []byte(code))
	}
	return match == 1
}

// hotp is RFC 4226 section 5.3: HMAC over the big-endian counter, dynamic
// truncation to 31 bits, then modulo 10^digits.
func hotp(secret []byte, counter uint64, cfg Config) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(cfg.Algorithm.hash(), secret)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	code := strconv.FormatUint(uint64(bin)%pow10(cfg.Digits), 10)
	if pad := cfg.Digits - len(code); pad > 0 {
		code = strings.Repeat("0", pad) + code
	}
	return code
}

func pow10(n int) uint64 {
	v := uint64(1)
	for range n {
		v *= 10
	}
	return v
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
