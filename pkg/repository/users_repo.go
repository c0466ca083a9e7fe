package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-idm-mfa/pkg/domain"
)

// UsersRepository handles user persistence.
type UsersRepository struct {
	db *DB
}

// NewUsersRepository creates a new users repository.
func NewUsersRepository(db *DB) *UsersRepository {
	return &UsersRepository{db: db}
}

const userColumns = `id, username, password_hash, mfa_enabled, mfa_secret, created_at, updated_at`

// Create inserts a new user with MFA disabled.
func (r *UsersRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.MFAEnabled = false
	user.MFASecret = ""
	user.CreatedAt = now
	user.UpdatedAt = now

	return Tx(ctx, r.db.DB, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			r.db.rebind(`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`),
			user.Username,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if exists {
			return domain.ErrUserAlreadyExists
		}

		_, err = tx.ExecContext(ctx, r.db.rebind(`
			INSERT INTO users (id, username, password_hash, mfa_enabled, mfa_secret, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NULL, $5, $6)
		`), user.ID, user.Username, user.PasswordHash, false, user.CreatedAt, user.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a user by ID.
func (r *UsersRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, r.db.rebind(query), id))
}

// GetByUsername retrieves a user by username.
func (r *UsersRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, r.db.rebind(query), username))
}

func (r *UsersRepository) scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	var secret sql.NullString
	err := row.Scan(
		&user.ID, &user.Username, &user.PasswordHash,
		&user.MFAEnabled, &secret, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	user.MFASecret = secret.String
	return user, nil
}

// ExistsByUsername checks if a username is taken.
func (r *UsersRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		r.db.rebind(`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`),
		username,
	).Scan(&exists)
	return exists, err
}

// EnableMFA sets the MFA flag and secret in a single statement, replacing
// any previous secret.
func (r *UsersRepository) EnableMFA(ctx context.Context, userID uuid.UUID, secret string) error {
	if secret == "" {
		return fmt.Errorf("empty MFA secret")
	}
	query := `
		UPDATE users
		SET mfa_enabled = $2, mfa_secret = $3, updated_at = $4
		WHERE id = $1
	`
	return r.execOne(ctx, query, userID, true, secret, time.Now().UTC())
}

// DisableMFA clears the MFA flag and secret in a single statement.
func (r *UsersRepository) DisableMFA(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE users
		SET mfa_enabled = $2, mfa_secret = NULL, updated_at = $3
		WHERE id = $1
	`
	return r.execOne(ctx, query, userID, false, time.Now().UTC())
}

// Delete removes a user.
func (r *UsersRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (r *UsersRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
