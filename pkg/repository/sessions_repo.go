package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/tendant/simple-idm-mfa/pkg/domain"
)

// SessionsRepository persists per-session authentication state. Rows are
// keyed by a SHA-256 of the session ID so a database dump cannot be replayed
// as cookies.
type SessionsRepository struct {
	db  *DB
	ttl time.Duration
}

// NewSessionsRepository creates a sessions repository whose entries expire
// ttl after their last save.
func NewSessionsRepository(db *DB, ttl time.Duration) *SessionsRepository {
	return &SessionsRepository{db: db, ttl: ttl}
}

func hashSessionID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

// Get returns the state stored under id.
func (r *SessionsRepository) Get(ctx context.Context, id string) (domain.AuthState, error) {
	query := `
		SELECT primary_user, phase, updated_at, expires_at
		FROM sessions
		WHERE id_hash = $1
	`
	var (
		state     domain.AuthState
		phase     string
		expiresAt time.Time
	)
	err := r.db.QueryRowContext(ctx, r.db.rebind(query), hashSessionID(id)).Scan(
		&state.PrimaryUser, &phase, &state.UpdatedAt, &expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AuthState{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.AuthState{}, err
	}
	if !time.Now().Before(expiresAt) {
		_ = r.Delete(ctx, id)
		return domain.AuthState{}, domain.ErrSessionExpired
	}
	state.Phase = domain.Phase(phase)
	return state, nil
}

// Save creates or replaces the state stored under id and extends its expiry.
func (r *SessionsRepository) Save(ctx context.Context, id string, state domain.AuthState) error {
	now := time.Now().UTC()
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = now
	}
	query := `
		INSERT INTO sessions (id_hash, primary_user, phase, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id_hash) DO UPDATE
		SET primary_user = excluded.primary_user,
		    phase = excluded.phase,
		    updated_at = excluded.updated_at,
		    expires_at = excluded.expires_at
	`
	_, err := r.db.ExecContext(ctx, r.db.rebind(query),
		hashSessionID(id), state.PrimaryUser, string(state.Phase), state.UpdatedAt.UTC(), now.Add(r.ttl),
	)
	return err
}

// Delete removes the state stored under id. Deleting a missing session is
// not an error.
func (r *SessionsRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.db.rebind(`DELETE FROM sessions WHERE id_hash = $1`), hashSessionID(id))
	return err
}

// DeleteExpired removes expired sessions and returns how many were removed.
func (r *SessionsRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.db.rebind(`DELETE FROM sessions WHERE expires_at <= $1`), time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
