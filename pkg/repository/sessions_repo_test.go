package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-idm-mfa/pkg/domain"
)

func TestSessionsRepository_SaveGetDelete(t *testing.T) {
	repo := NewSessionsRepository(newSQLiteDB(t), time.Hour)
	ctx := context.Background()

	_, err := repo.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	state := domain.AuthState{PrimaryUser: "alice", Phase: domain.PhasePrimaryOK}
	require.NoError(t, repo.Save(ctx, "sid-1", state))

	got, err := repo.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.PrimaryUser)
	assert.Equal(t, domain.PhasePrimaryOK, got.Phase)

	state.Phase = domain.PhaseMFAVerified
	state.UpdatedAt = time.Time{}
	require.NoError(t, repo.Save(ctx, "sid-1", state))

	got, err = repo.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, got.IsFullyAuthenticated())

	require.NoError(t, repo.Delete(ctx, "sid-1"))
	require.NoError(t, repo.Delete(ctx, "sid-1"))

	_, err = repo.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionsRepository_StoresHashedIDs(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewSessionsRepository(db, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "plain-session-id", domain.Unauthenticated()))

	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		db.rebind(`SELECT COUNT(*) FROM sessions WHERE id_hash = $1`), "plain-session-id").Scan(&n))
	assert.Zero(t, n)
}

func TestSessionsRepository_Expiry(t *testing.T) {
	db := newSQLiteDB(t)
	expired := NewSessionsRepository(db, -time.Minute)
	ctx := context.Background()

	require.NoError(t, expired.Save(ctx, "old", domain.AuthState{PrimaryUser: "alice", Phase: domain.PhaseMFAVerified}))
	require.NoError(t, expired.Save(ctx, "older", domain.AuthState{PrimaryUser: "bob", Phase: domain.PhaseMFAVerified}))

	_, err := expired.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)

	n, err := expired.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
