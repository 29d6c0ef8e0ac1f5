package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anonto42/walltribe/backend/internal/lock"
	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/repositories/memory"
	"github.com/anonto42/walltribe/backend/pkg/metrics"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	users       *memory.UserRepository
	friendships *memory.FriendshipRepository
	images      *memory.ImageRepository
	reactions   *memory.ReactionRepository
	comments    *memory.CommentRepository
	cache       *memory.FriendCache

	identity      *IdentityService
	relationships *RelationshipService
	reactionSvc   *ReactionService
	feed          *FeedService
	commentSvc    *CommentService
	imageSvc      *ImageService
}

var testReactionConfig = ReactionConfig{CounterRetries: 2, RetryInterval: time.Millisecond}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	metrics.Init()

	f := &fixture{
		users:       memory.NewUserRepository(),
		friendships: memory.NewFriendshipRepository(),
		images:      memory.NewImageRepository(),
		reactions:   memory.NewReactionRepository(),
		comments:    memory.NewCommentRepository(),
		cache:       memory.NewFriendCache(),
	}
	log := zap.NewNop()
	f.identity = NewIdentityService(f.users, log)
	f.relationships = NewRelationshipService(f.identity, f.users, f.friendships, f.cache, log)
	f.reactionSvc = NewReactionService(f.images, f.reactions, lock.NewKeyedMutex(), testReactionConfig, log)
	f.feed = NewFeedService(f.relationships, f.users, f.images, f.reactions, f.comments, f.reactionSvc, log)
	f.commentSvc = NewCommentService(f.comments, f.images, f.users, log)
	f.imageSvc = NewImageService(f.images, f.reactions, f.comments, log)
	return f
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	user, created, err := f.identity.Register(context.Background(), "uid-"+name, name, name+"@example.com")
	require.NoError(t, err)
	require.True(t, created)
	return user
}

func (f *fixture) image(t *testing.T, owner *models.User) string {
	t.Helper()
	image, err := f.imageSvc.Create(context.Background(), owner, models.CreateImageRequest{
		URL:    "https://cdn.example.com/" + owner.Username + ".png",
		FileID: "file-" + owner.Username,
	})
	require.NoError(t, err)
	// Keep creation times strictly increasing for ordering assertions
	time.Sleep(2 * time.Millisecond)
	return image.ID.Hex()
}

func (f *fixture) befriend(t *testing.T, a, b *models.User) {
	t.Helper()
	ctx := context.Background()
	outcome, err := f.relationships.SendRequest(ctx, a, b.Username)
	require.NoError(t, err)
	require.Equal(t, OutcomeRequestSent, outcome)
	outcome, err = f.relationships.AcceptRequest(ctx, b, a.Username)
	require.NoError(t, err)
	require.Equal(t, OutcomeFriendshipCreated, outcome)
}

var errFlaky = errors.New("counter store unavailable")

// flakyImages fails the first n counter increments, or all of them when n < 0.
// SetCounters can be disabled to make a recount fail too.
type flakyImages struct {
	*memory.ImageRepository
	failures    int64
	calls       atomic.Int64
	failSetters bool
}

func (f *flakyImages) IncrementCounter(ctx context.Context, id string, kind models.ReactionKind, delta int64) error {
	n := f.calls.Add(1)
	if f.failures < 0 || n <= f.failures {
		return errFlaky
	}
	return f.ImageRepository.IncrementCounter(ctx, id, kind, delta)
}

func (f *flakyImages) SetCounters(ctx context.Context, id string, counters models.Counters, revision int64, staleBefore time.Time) (bool, error) {
	if f.failSetters {
		return false, errFlaky
	}
	return f.ImageRepository.SetCounters(ctx, id, counters, revision, staleBefore)
}

// ctxImages fails every write on a done context, as the mongo driver does
type ctxImages struct {
	*memory.ImageRepository
}

func (c ctxImages) BeginUpdate(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.ImageRepository.BeginUpdate(ctx, id)
}

func (c ctxImages) EndUpdate(ctx context.Context, id, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.ImageRepository.EndUpdate(ctx, id, token)
}

func (c ctxImages) IncrementCounter(ctx context.Context, id string, kind models.ReactionKind, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.ImageRepository.IncrementCounter(ctx, id, kind, delta)
}

func (c ctxImages) SetCounters(ctx context.Context, id string, counters models.Counters, revision int64, staleBefore time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.ImageRepository.SetCounters(ctx, id, counters, revision, staleBefore)
}

// hookedReactions runs beforeInsert and afterInsert around every fact insert
type hookedReactions struct {
	*memory.ReactionRepository
	beforeInsert func()
	afterInsert  func()
}

func (h *hookedReactions) InsertFact(ctx context.Context, kind models.ReactionKind, userID uint, imageID string) (bool, error) {
	if h.beforeInsert != nil {
		h.beforeInsert()
	}
	created, err := h.ReactionRepository.InsertFact(ctx, kind, userID, imageID)
	if err == nil && h.afterInsert != nil {
		h.afterInsert()
	}
	return created, err
}

// likeState returns the stored like fact of userID and the like counter of imageID
func (f *fixture) likeState(t *testing.T, userID uint, imageID string) (bool, int64) {
	t.Helper()
	ctx := context.Background()
	liked, err := f.reactions.HasFact(ctx, models.KindLike, userID, imageID)
	require.NoError(t, err)
	image, err := f.images.GetImageByID(ctx, imageID)
	require.NoError(t, err)
	return liked, image.LikeCount
}

// corrupt overwrites the stored counters of imageID
func (f *fixture) corrupt(t *testing.T, imageID string, counters models.Counters) {
	t.Helper()
	ctx := context.Background()
	image, err := f.images.GetImageByID(ctx, imageID)
	require.NoError(t, err)
	written, err := f.images.SetCounters(ctx, imageID, counters, image.Revision, time.Time{})
	require.NoError(t, err)
	require.True(t, written)
}
