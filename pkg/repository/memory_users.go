package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-idm-mfa/pkg/domain"
)

// MemoryUsersRepository is an in-process user store. All mutations hold the
// lock, so the MFA flag and secret always change together.
type MemoryUsersRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*domain.User
	byName map[string]uuid.UUID
}

// NewMemoryUsersRepository creates an empty store.
func NewMemoryUsersRepository() *MemoryUsersRepository {
	return &MemoryUsersRepository{
		byID:   make(map[uuid.UUID]*domain.User),
		byName: make(map[string]uuid.UUID),
	}
}

// Create inserts a new user with MFA disabled.
func (r *MemoryUsersRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[user.Username]; ok {
		return domain.ErrUserAlreadyExists
	}

	now := time.Now().UTC()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.MFAEnabled = false
	user.MFASecret = ""
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.byID[user.ID] = &stored
	r.byName[user.Username] = user.ID
	return nil
}

// GetByID returns a copy of the user.
func (r *MemoryUsersRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetByUsername returns a copy of the user.
func (r *MemoryUsersRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	id, ok := r.byName[username]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

// ExistsByUsername checks if a username is taken.
func (r *MemoryUsersRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[username]
	return ok, nil
}

// EnableMFA sets the MFA flag and secret together.
func (r *MemoryUsersRepository) EnableMFA(_ context.Context, userID uuid.UUID, secret string) error {
	if secret == "" {
		return fmt.Errorf("empty MFA secret")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.MFAEnabled = true
	u.MFASecret = secret
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// DisableMFA clears the MFA flag and secret together.
func (r *MemoryUsersRepository) DisableMFA(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.MFAEnabled = false
	u.MFASecret = ""
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes a user.
func (r *MemoryUsersRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byName, u.Username)
	delete(r.byID, id)
	return nil
}
