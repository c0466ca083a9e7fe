package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/tendant/simple-idm-mfa/pkg/domain"
)

// UserStore is the account persistence the services depend on. EnableMFA and
// DisableMFA must each change the MFA flag and secret in one atomic step.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	EnableMFA(ctx context.Context, userID uuid.UUID, secret string) error
	DisableMFA(ctx context.Context, userID uuid.UUID) error
}
