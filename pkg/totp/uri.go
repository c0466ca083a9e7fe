package totp

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Key is the decoded content of an otpauth://totp URI.
type Key struct {
	Issuer string
	Label  string
	Secret []byte
	Config Config
}

// BuildEnrollmentURI returns
//
//	otpauth://totp/<issuer>:<label>?secret=..&issuer=..&algorithm=..&digits=..&period=..
//
// with the parameters in that order. An empty issuer drops both the label
// prefix and the issuer parameter.
func BuildEnrollmentURI(secret []byte, label, issuer string, cfg Config) (string, error) {
	if len(secret) == 0 {
		return "", ErrInvalidSecret
	}
	if label == "" {
		return "", ErrMissingLabel
	}
	if strings.Contains(label, ":") || strings.Contains(issuer, ":") {
		return "", ErrInvalidLabel
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	cfg = cfg.withDefaults()

	var b strings.Builder
	b.WriteString("otpauth://totp/")
	if issuer != "" {
		b.WriteString(url.PathEscape(issuer))
		b.WriteByte(':')
	}
	b.WriteString(url.PathEscape(label))

	b.WriteString("?secret=")
	b.WriteString(EncodeSecret(secret))
	if issuer != "" {
		b.WriteString("&issuer=")
		b.WriteString(queryEscape(issuer))
	}
	b.WriteString("&algorithm=")
	b.WriteString(string(cfg.Algorithm))
	b.WriteString("&digits=")
	b.WriteString(strconv.Itoa(cfg.Digits))
	b.WriteString("&period=")
	b.WriteString(strconv.Itoa(cfg.Period))
	return b.String(), nil
}

// queryEscape encodes spaces as %20; several authenticator apps show a
// literal '+' otherwise.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// ParseEnrollmentURI decodes a TOTP provisioning URI. Missing optional
// parameters take the defaults; the skew is always DefaultSkew since it is
// not carried in the URI.
func ParseEnrollmentURI(raw string) (*Key, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	if u.Scheme != "otpauth" || u.Host != "totp" {
		return nil, fmt.Errorf("%w: expected otpauth://totp", ErrInvalidURI)
	}

	key := &Key{Config: DefaultConfig()}
	path := strings.TrimPrefix(u.Path, "/")
	if issuer, label, ok := strings.Cut(path, ":"); ok {
		key.Issuer = strings.TrimSpace(issuer)
		key.Label = strings.TrimSpace(label)
	} else {
		key.Label = path
	}
	if key.Label == "" {
		return nil, ErrMissingLabel
	}

	q := u.Query()
	if issuer := q.Get("issuer"); issuer != "" {
		if key.Issuer != "" && key.Issuer != issuer {
			return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalidURI)
		}
		key.Issuer = issuer
	}

	key.Secret, err = DecodeSecret(q.Get("secret"))
	if err != nil {
		return nil, err
	}
	if v := q.Get("algorithm"); v != "" {
		if key.Config.Algorithm, err = ParseAlgorithm(v); err != nil {
			return nil, err
		}
	}
	if v := q.Get("digits"); v != "" {
		if key.Config.Digits, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("%w: digits %q", ErrInvalidURI, v)
		}
	}
	if v := q.Get("period"); v != "" {
		if key.Config.Period, err = strconv.Atoi(v); err != nil || key.Config.Period <= 0 {
			return nil, fmt.Errorf("%w: period %q", ErrInvalidURI, v)
		}
	}
	if err := key.Config.Validate(); err != nil {
		return nil, err
	}
	return key, nil
}
