package identity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfward/shelfward/internal/domain"
	"github.com/shelfward/shelfward/internal/identity"
)

func Test_TokenCodec_When_RoundTripping(t *testing.T) {
	// setup
	codec := identity.NewTokenCodec([]byte("test-secret"), time.Hour)

	user := domain.User{
		ID:    42,
		Name:  "Stanislaw Lem",
		Email: "lem@example.com",
		Permissions: domain.Permissions{
			CanCreateBooks: true,
			CanDeleteUsers: true,
		},
	}

	// act
	token, err := codec.Issue(user)
	require.NoError(t, err)

	caller, err := codec.Parse(token)

	// assert
	require.NoError(t, err)
	assert.Equal(t, int64(42), caller.UserID)
	assert.True(t, caller.CanCreateBooks)
	assert.True(t, caller.CanDeleteUsers)
	assert.False(t, caller.CanUpdateBooks)
	assert.False(t, caller.CanUpdateUsers)
}

func Test_TokenCodec_When_TokenIsExpired(t *testing.T) {
	// setup
	codec := identity.NewTokenCodec([]byte("test-secret"), -time.Minute)

	token, err := codec.Issue(domain.User{ID: 42})
	require.NoError(t, err)

	// act
	_, err = codec.Parse(token)

	// assert
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func Test_TokenCodec_When_SignedWithDifferentSecret(t *testing.T) {
	// setup
	issuer := identity.NewTokenCodec([]byte("one-secret"), time.Hour)
	verifier := identity.NewTokenCodec([]byte("another-secret"), time.Hour)

	token, err := issuer.Issue(domain.User{ID: 42})
	require.NoError(t, err)

	// act
	_, err = verifier.Parse(token)

	// assert
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func Test_TokenCodec_When_TokenIsGarbage(t *testing.T) {
	// setup
	codec := identity.NewTokenCodec([]byte("test-secret"), time.Hour)

	// act
	_, err := codec.Parse("not.a.token")

	// assert
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}
