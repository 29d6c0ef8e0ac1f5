package memory

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ repositories.UserRepository       = (*UserRepository)(nil)
	_ repositories.FriendshipRepository = (*FriendshipRepository)(nil)
	_ repositories.ImageRepository      = (*ImageRepository)(nil)
	_ repositories.ReactionRepository   = (*ReactionRepository)(nil)
	_ repositories.CommentRepository    = (*CommentRepository)(nil)
	_ repositories.FriendCache          = (*FriendCache)(nil)
)

func TestUserRepositoryUniqueKeys(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	created, err := repo.CreateUser(ctx, &models.User{FirebaseUID: "p1", Username: "alice", Email: "a@x.io"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateUser(ctx, &models.User{FirebaseUID: "p2", Username: "alice", Email: "b@x.io"})
	require.NoError(t, err)
	assert.False(t, created)

	_, err = repo.GetUserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestFriendshipRepositoryCanonicalPair(t *testing.T) {
	ctx := context.Background()
	repo := NewFriendshipRepository()

	created, err := repo.CreateFriendship(ctx, models.NewFriendship(7, 3))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateFriendship(ctx, models.NewFriendship(3, 7))
	require.NoError(t, err)
	assert.False(t, created)

	ok, err := repo.AreFriends(ctx, 7, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := repo.GetFriendIDs(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, ids)

	deleted, err := repo.DeleteFriendship(ctx, 7, 3)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.DeleteFriendship(ctx, 7, 3)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestReactionRepositoryFacts(t *testing.T) {
	ctx := context.Background()
	repo := NewReactionRepository()

	inserted, err := repo.InsertFact(ctx, models.KindLike, 1, "img")
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = repo.InsertFact(ctx, models.KindLike, 1, "img")
	require.NoError(t, err)
	assert.False(t, inserted)

	n, err := repo.CountFacts(ctx, models.KindLike, "img")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.DeleteFactsByImageID(ctx, "img"))
	has, err := repo.HasFact(ctx, models.KindLike, 1, "img")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = repo.InsertFact(ctx, models.ReactionKind("love"), 1, "img")
	assert.Error(t, err)
}

func TestImageRepositoryCounters(t *testing.T) {
	ctx := context.Background()
	repo := NewImageRepository()

	image := &models.Image{OwnerID: 1, URL: "https://cdn.example.com/a.png"}
	require.NoError(t, repo.CreateImage(ctx, image))
	id := image.ID.Hex()

	require.NoError(t, repo.IncrementCounter(ctx, id, models.KindDislike, 2))
	stored, err := repo.GetImageByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.Counters{Dislikes: 2}, stored.Counters())

	_, err = repo.GetImageByID(ctx, "nope")
	assert.ErrorIs(t, err, repositories.ErrInvalidID)

	require.NoError(t, repo.DeleteImage(ctx, id))
	assert.ErrorIs(t, repo.IncrementCounter(ctx, id, models.KindLike, 1), repositories.ErrNotFound)
}

func TestImageRepositoryRevisionGuard(t *testing.T) {
	ctx := context.Background()
	repo := NewImageRepository()

	image := &models.Image{OwnerID: 1, URL: "https://cdn.example.com/a.png"}
	require.NoError(t, repo.CreateImage(ctx, image))
	id := image.ID.Hex()

	token, err := repo.BeginUpdate(ctx, id)
	require.NoError(t, err)
	stored, err := repo.GetImageByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Revision)
	assert.True(t, stored.InFlight(time.Now().Add(-time.Minute), ""))
	assert.False(t, stored.InFlight(time.Now().Add(-time.Minute), token))

	ok, err := repo.SetCounters(ctx, id, models.Counters{Likes: 4}, 0, time.Time{})
	require.NoError(t, err)
	assert.False(t, ok, "stale revision must not overwrite")

	require.NoError(t, repo.EndUpdate(ctx, id, token))
	ok, err = repo.SetCounters(ctx, id, models.Counters{Likes: 4}, 1, time.Time{})
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err = repo.GetImageByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.Counters{Likes: 4}, stored.Counters())
	assert.Empty(t, stored.Pending)
}

func TestImageRepositoryDeleting(t *testing.T) {
	ctx := context.Background()
	repo := NewImageRepository()

	image := &models.Image{OwnerID: 1, URL: "https://cdn.example.com/a.png"}
	require.NoError(t, repo.CreateImage(ctx, image))
	id := image.ID.Hex()

	require.NoError(t, repo.MarkDeleting(ctx, id))
	_, err := repo.BeginUpdate(ctx, id)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, repo.IncrementCounter(ctx, id, models.KindLike, 1), repositories.ErrNotFound)

	images, err := repo.GetImagesByOwnerIDs(ctx, []uint{1})
	require.NoError(t, err)
	assert.Empty(t, images)

	stored, err := repo.GetImageByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.Deleting)
}

func TestFriendRequestOnePerUnorderedPair(t *testing.T) {
	ctx := context.Background()
	repo := NewFriendshipRepository()

	created, err := repo.CreateFriendRequest(ctx, models.NewFriendRequest(7, 3))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateFriendRequest(ctx, models.NewFriendRequest(3, 7))
	require.NoError(t, err)
	assert.False(t, created)

	req, err := repo.GetFriendRequest(ctx, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, uint(3), req.PairLow)
	assert.Equal(t, uint(7), req.PairHigh)
}

func TestFriendCacheDropsSetAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	cache := NewFriendCache()

	_, version, ok, err := cache.GetFriendIDs(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Invalidate(ctx, 1))
	require.NoError(t, cache.SetFriendIDs(ctx, 1, []uint{2}, version))
	_, version, ok, err = cache.GetFriendIDs(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetFriendIDs(ctx, 1, []uint{2}, version))
	ids, _, ok, err := cache.GetFriendIDs(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []uint{2}, ids)
}
