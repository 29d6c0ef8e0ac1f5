package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	resolved, err := f.identity.Resolve(ctx, "uid-alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, resolved.ID)

	_, err = f.identity.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.identity.Resolve(ctx, "uid-nobody")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestIdentityRegisterOncePerPrincipal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	again, created, err := f.identity.Register(ctx, "uid-alice", "alice2", "other@example.com")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, alice.ID, again.ID)
	assert.Equal(t, "alice", again.Username)
}

func TestIdentityRegisterRejectsTakenName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")

	_, _, err := f.identity.Register(ctx, "uid-mallory", "alice", "mallory@example.com")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = f.identity.Register(ctx, "uid-mallory", "mallory", "ALICE@example.com")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = f.identity.Register(ctx, "", "mallory", "mallory@example.com")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestIdentityFindByDisplayName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")

	user, err := f.identity.FindByDisplayName(ctx, " alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = f.identity.FindByDisplayName(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.identity.FindByDisplayName(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
