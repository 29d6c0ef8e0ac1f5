package services

import (
	"context"
	"testing"

	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedIncludesSelfAndFriendsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol, dave := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol"), f.user(t, "dave")
	f.befriend(t, alice, bob)
	f.befriend(t, carol, alice)
	f.befriend(t, bob, dave) // friend of a friend stays invisible

	first := f.image(t, alice)
	second := f.image(t, bob)
	f.image(t, dave)
	third := f.image(t, carol)
	fourth := f.image(t, alice)

	feed, err := f.feed.BuildFeed(ctx, alice)
	require.NoError(t, err)

	var ids, owners []string
	for _, item := range feed {
		ids = append(ids, item.ID)
		owners = append(owners, item.UploadedByUsername)
	}
	assert.Equal(t, []string{fourth, third, second, first}, ids)
	assert.Equal(t, []string{"alice", "carol", "bob", "alice"}, owners)
}

func TestFeedAttachesViewerFlagsAndComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	f.befriend(t, alice, bob)
	imageID := f.image(t, bob)

	_, err := f.reactionSvc.React(ctx, alice, imageID, "dislike")
	require.NoError(t, err)
	_, err = f.reactionSvc.ToggleFavorite(ctx, alice, imageID)
	require.NoError(t, err)
	_, err = f.reactionSvc.React(ctx, bob, imageID, "like")
	require.NoError(t, err)
	_, err = f.commentSvc.Create(ctx, bob, imageID, "first!")
	require.NoError(t, err)
	_, err = f.commentSvc.Create(ctx, alice, imageID, "nice")
	require.NoError(t, err)

	feed, err := f.feed.BuildFeed(ctx, alice)
	require.NoError(t, err)
	require.Len(t, feed, 1)

	want := models.FeedImage{
		ID:            imageID,
		Src:           "https://cdn.example.com/bob.png",
		FileID:        "file-bob",
		Likes:         1,
		Dislikes:      1,
		FavoriteCount: 1,
		IsDisliked:    true,
		IsFavorited:   true,
		CommentCount:  2,
		Comments: []models.CommentView{
			{Content: "nice", User: alice.ToCompact()},
			{Content: "first!", User: bob.ToCompact()},
		},
		UploadedByUsername: "bob",
	}
	opts := cmp.Options{
		cmpopts.IgnoreFields(models.FeedImage{}, "CreatedAt"),
		cmpopts.IgnoreFields(models.CommentView{}, "ID", "CreatedAt"),
	}
	if diff := cmp.Diff(want, feed[0], opts); diff != "" {
		t.Errorf("feed mismatch (-want +got):\n%s", diff)
	}
}

func TestFeedWithoutImages(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	feed, err := f.feed.BuildFeed(context.Background(), alice)
	require.NoError(t, err)
	assert.NotNil(t, feed)
	assert.Empty(t, feed)
}

func TestFeedRepairsNegativeCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	imageID := f.image(t, alice)

	_, err := f.reactionSvc.React(ctx, alice, imageID, "like")
	require.NoError(t, err)
	f.corrupt(t, imageID, models.Counters{Likes: -3})

	feed, err := f.feed.BuildFeed(ctx, alice)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, int64(1), feed[0].Likes)

	stored, err := f.images.GetImageByID(ctx, imageID)
	require.NoError(t, err)
	assert.Equal(t, models.Counters{Likes: 1}, stored.Counters())
}

func TestVisibleOwners(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	f.befriend(t, bob, alice)

	owners, err := f.feed.VisibleOwners(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{alice.ID, bob.ID}, owners)
}
