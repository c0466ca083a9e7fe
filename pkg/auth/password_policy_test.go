package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/tendant/simple-idm-mfa/internal/config"
	"github.com/tendant/simple-idm-mfa/pkg/domain"
)

func TestPasswordPolicy_ValidatePassword(t *testing.T) {
	strict := PasswordPolicy{
		MinLength:        12,
		MaxLength:        64,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumber:    true,
		RequireSpecial:   true,
	}

	tests := []struct {
		name     string
		policy   PasswordPolicy
		password string
		wantErr  bool
	}{
		{"no requirements - any password valid", PasswordPolicy{}, "a", false},
		{"min length - valid", PasswordPolicy{MinLength: 8}, "12345678", false},
		{"min length - too short", PasswordPolicy{MinLength: 8}, "1234567", true},
		{"max length - too long", PasswordPolicy{MaxLength: 8}, "123456789", true},
		{"require uppercase - missing", PasswordPolicy{RequireUppercase: true}, "password", true},
		{"require lowercase - missing", PasswordPolicy{RequireLowercase: true}, "PASSWORD", true},
		{"require number - missing", PasswordPolicy{RequireNumber: true}, "Password", true},
		{"require special - valid", PasswordPolicy{RequireSpecial: true}, "Password!", false},
		{"require special - missing", PasswordPolicy{RequireSpecial: true}, "Password123", true},
		{"all requirements - valid", strict, "StrongPass123!", false},
		{"all requirements - missing special", strict, "StrongPass123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrWeakPassword) {
				t.Errorf("ValidatePassword() error = %v, want ErrWeakPassword", err)
			}
		})
	}
}

func TestPasswordPolicy_ListsEveryUnmetRequirement(t *testing.T) {
	policy := PasswordPolicy{MinLength: 10, RequireNumber: true, RequireSpecial: true}

	err := policy.ValidatePassword("short")
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"at least 10 characters", "one number", "one special character"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestNewPasswordPolicy(t *testing.T) {
	policy := NewPasswordPolicy(config.PasswordPolicyConfig{
		MinLength:        12,
		MaxLength:        128,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumber:    true,
		RequireSpecial:   true,
	})

	if policy.MinLength != 12 || policy.MaxLength != 128 {
		t.Errorf("lengths = %d/%d, want 12/128", policy.MinLength, policy.MaxLength)
	}
	if !policy.RequireUppercase || !policy.RequireLowercase || !policy.RequireNumber || !policy.RequireSpecial {
		t.Errorf("character requirements not copied: %+v", policy)
	}
}

func TestPasswordPolicy_GetRequirements(t *testing.T) {
	tests := []struct {
		name   string
		policy PasswordPolicy
		want   string
	}{
		{
			name:   "no requirements",
			policy: PasswordPolicy{},
			want:   "No password requirements",
		},
		{
			name:   "min length only",
			policy: PasswordPolicy{MinLength: 8},
			want:   "Password must contain at least 8 characters",
		},
		{
			name: "all requirements",
			policy: PasswordPolicy{
				MinLength:        12,
				RequireUppercase: true,
				RequireLowercase: true,
				RequireNumber:    true,
				RequireSpecial:   true,
			},
			want: "Password must contain at least 12 characters, one uppercase letter, one lowercase letter, one number, one special character",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.GetRequirements(); got != tt.want {
				t.Errorf("GetRequirements() = %v, want %v", got, tt.want)
			}
		})
	}
}
