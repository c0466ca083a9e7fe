package auth

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tendant/simple-idm-mfa/internal/config"
	"github.com/tendant/simple-idm-mfa/pkg/domain"
)

// PasswordPolicy defines password complexity requirements.
type PasswordPolicy struct {
	MinLength        int
	MaxLength        int // bounds argon2 input; 0 means unlimited
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// NewPasswordPolicy creates a PasswordPolicy from config.
func NewPasswordPolicy(cfg config.PasswordPolicyConfig) *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:        cfg.MinLength,
		MaxLength:        cfg.MaxLength,
		RequireUppercase: cfg.RequireUppercase,
		RequireLowercase: cfg.RequireLowercase,
		RequireNumber:    cfg.RequireNumber,
		RequireSpecial:   cfg.RequireSpecial,
	}
}

// ValidatePassword returns an error wrapping domain.ErrWeakPassword that
// lists every unmet requirement.
func (p *PasswordPolicy) ValidatePassword(password string) error {
	var unmet []string

	if p.MinLength > 0 && len(password) < p.MinLength {
		unmet = append(unmet, fmt.Sprintf("at least %d characters", p.MinLength))
	}
	if p.MaxLength > 0 && len(password) > p.MaxLength {
		unmet = append(unmet, fmt.Sprintf("at most %d characters", p.MaxLength))
	}
	if p.RequireUppercase && !containsRune(password, unicode.IsUpper) {
		unmet = append(unmet, "one uppercase letter")
	}
	if p.RequireLowercase && !containsRune(password, unicode.IsLower) {
		unmet = append(unmet, "one lowercase letter")
	}
	if p.RequireNumber && !containsRune(password, unicode.IsDigit) {
		unmet = append(unmet, "one number")
	}
	if p.RequireSpecial && !containsRune(password, isSpecial) {
		unmet = append(unmet, "one special character")
	}

	if len(unmet) > 0 {
		return fmt.Errorf("%w: needs %s", domain.ErrWeakPassword, strings.Join(unmet, ", "))
	}
	return nil
}

// GetRequirements returns a human-readable description of the policy.
func (p *PasswordPolicy) GetRequirements() string {
	if !p.HasRequirements() {
		return "No password requirements"
	}

	var requirements []string
	if p.MinLength > 0 {
		requirements = append(requirements, fmt.Sprintf("at least %d characters", p.MinLength))
	}
	if p.RequireUppercase {
		requirements = append(requirements, "one uppercase letter")
	}
	if p.RequireLowercase {
		requirements = append(requirements, "one lowercase letter")
	}
	if p.RequireNumber {
		requirements = append(requirements, "one number")
	}
	if p.RequireSpecial {
		requirements = append(requirements, "one special character")
	}
	return "Password must contain " + strings.Join(requirements, ", ")
}

// HasRequirements returns true if the policy has any requirements.
func (p *PasswordPolicy) HasRequirements() bool {
	return p.MinLength > 0 || p.RequireUppercase || p.RequireLowercase || p.RequireNumber || p.RequireSpecial
}

func containsRune(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if pred(r) {
			return true
		}
	}
	return false
}

func isSpecial(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}
