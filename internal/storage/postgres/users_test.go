package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfward/shelfward/internal/domain"
)

func Test_CreateUser_When_EmailIsTaken(t *testing.T) {
	// setup
	ctx := context.Background()
	db := &fakeDB{
		queryQueue: []queryResult{
			{err: &pgconn.PgError{Code: "23505"}},
		},
	}
	store := newFakeStore(db)

	// act
	_, err := store.CreateUser(ctx, "Someone", "taken@example.com", "hash")

	// assert
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyInUse)
}

func Test_SeedUser_When_EmailIsNew(t *testing.T) {
	// setup
	ctx := context.Background()
	db := &fakeDB{execResults: []int64{1}}
	store := newFakeStore(db)

	// act
	created, err := store.SeedUser(ctx, "Admin", "admin@example.com", "hash")

	// assert
	require.NoError(t, err)
	assert.True(t, created)

	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0], "ON CONFLICT DO NOTHING")
	assert.Contains(t, db.execs[0], "can_delete_users")
}

func Test_SeedUser_When_EmailAlreadyExists(t *testing.T) {
	// setup
	ctx := context.Background()
	db := &fakeDB{execResults: []int64{0}}
	store := newFakeStore(db)

	// act
	created, err := store.SeedUser(ctx, "Admin", "admin@example.com", "hash")

	// assert
	require.NoError(t, err)
	assert.False(t, created)
}
