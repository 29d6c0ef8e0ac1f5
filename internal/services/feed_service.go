package services

import (
	"context"

	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type friendIDSource interface {
	FriendIDs(ctx context.Context, userID uint) ([]uint, error)
}

type counterRepairer interface {
	Recount(ctx context.Context, imageID string) (models.CounterDelta, error)
}

// FeedService assembles the read-only feed of a user: images owned by the
// user or a friend, newest first, joined with reaction flags and comments.
// The joins are separate lookups and need not be consistent with each other.
type FeedService struct {
	friends   friendIDSource
	users     repositories.UserRepository
	images    repositories.ImageRepository
	reactions repositories.ReactionRepository
	comments  repositories.CommentRepository
	repairer  counterRepairer
	logger    *zap.Logger
}

// NewFeedService creates a new FeedService
func NewFeedService(
	friends friendIDSource,
	users repositories.UserRepository,
	images repositories.ImageRepository,
	reactions repositories.ReactionRepository,
	comments repositories.CommentRepository,
	repairer counterRepairer,
	logger *zap.Logger,
) *FeedService {
	return &FeedService{
		friends:   friends,
		users:     users,
		images:    images,
		reactions: reactions,
		comments:  comments,
		repairer:  repairer,
		logger:    logger,
	}
}

// VisibleOwners returns userID followed by the IDs of every friend
func (s *FeedService) VisibleOwners(ctx context.Context, userID uint) ([]uint, error) {
	friendIDs, err := s.friends.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return append([]uint{userID}, friendIDs...), nil
}

// BuildFeed returns every image visible to viewer, newest first
func (s *FeedService) BuildFeed(ctx context.Context, viewer *models.User) ([]models.FeedImage, error) {
	owners, err := s.VisibleOwners(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	images, err := s.images.GetImagesByOwnerIDs(ctx, owners)
	if err != nil {
		return nil, err
	}
	feed := make([]models.FeedImage, 0, len(images))
	if len(images) == 0 {
		return feed, nil
	}

	imageIDs := make([]string, len(images))
	for i := range images {
		imageIDs[i] = images[i].ID.Hex()
	}

	var (
		liked, disliked, favorited map[string]bool
		comments                   []models.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		liked, err = s.reactions.GetUserFactImageIDs(gctx, models.KindLike, viewer.ID, imageIDs)
		return err
	})
	g.Go(func() (err error) {
		disliked, err = s.reactions.GetUserFactImageIDs(gctx, models.KindDislike, viewer.ID, imageIDs)
		return err
	})
	g.Go(func() (err error) {
		favorited, err = s.reactions.GetUserFactImageIDs(gctx, models.KindFavorite, viewer.ID, imageIDs)
		return err
	})
	g.Go(func() (err error) {
		comments, err = s.comments.GetCommentsByImageIDs(gctx, imageIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names, err := s.displayNames(ctx, images, comments)
	if err != nil {
		return nil, err
	}

	byImage := make(map[string][]models.CommentView, len(images))
	for _, c := range comments {
		byImage[c.ImageID] = append(byImage[c.ImageID], models.CommentView{
			ID:        c.ID,
			Content:   c.Content,
			User:      models.UserCompact{ID: c.UserID, Username: names[c.UserID]},
			CreatedAt: c.CreatedAt,
		})
	}

	for i := range images {
		image := &images[i]
		id := imageIDs[i]
		counters := s.counters(ctx, image)

		views := byImage[id]
		if views == nil {
			views = []models.CommentView{}
		}
		feed = append(feed, models.FeedImage{
			ID:                 id,
			Src:                image.URL,
			Alt:                image.Alt,
			FileID:             image.FileID,
			FileWidth:          image.FileWidth,
			FileHeight:         image.FileHeight,
			Likes:              counters.Likes,
			Dislikes:           counters.Dislikes,
			FavoriteCount:      counters.Favorites,
			IsLiked:            liked[id],
			IsDisliked:         disliked[id],
			IsFavorited:        favorited[id],
			CommentCount:       len(views),
			Comments:           views,
			UploadedByUsername: names[image.OwnerID],
			CreatedAt:          image.CreatedAt,
		})
	}
	return feed, nil
}

// counters returns the image counters, repairing them first when they are visibly wrong.
// A failed repair does not fail the read.
func (s *FeedService) counters(ctx context.Context, image *models.Image) models.Counters {
	counters := image.Counters()
	if counters.Valid() {
		return counters
	}

	id := image.ID.Hex()
	s.logger.Warn("negative image counters, recounting", zap.String("image_id", id), zap.Any("counters", counters))
	delta, err := s.repairer.Recount(ctx, id)
	if err != nil {
		s.logger.Error("inline recount failed", zap.String("image_id", id), zap.Error(err))
		return models.Counters{
			Likes:     max(counters.Likes, 0),
			Dislikes:  max(counters.Dislikes, 0),
			Favorites: max(counters.Favorites, 0),
		}
	}
	return delta.After
}

// displayNames resolves the owners and comment authors in one lookup
func (s *FeedService) displayNames(ctx context.Context, images []models.Image, comments []models.Comment) (map[uint]string, error) {
	seen := make(map[uint]bool)
	var ids []uint
	add := func(id uint) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for i := range images {
		add(images[i].OwnerID)
	}
	for _, c := range comments {
		add(c.UserID)
	}

	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}
