package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/walltribe/backend/internal/lock"
	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/repositories"
	"github.com/anonto42/walltribe/backend/pkg/metrics"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ReactionConfig bounds the counter update retries
type ReactionConfig struct {
	CounterRetries uint64
	RetryInterval  time.Duration
	// UpdateLease is how long an unfinished reaction blocks a recount of its image
	UpdateLease time.Duration
}

// DefaultReactionConfig is used when the configured values are zero
var DefaultReactionConfig = ReactionConfig{CounterRetries: 3, RetryInterval: 20 * time.Millisecond, UpdateLease: time.Minute}

// errCountersBusy means a recount kept losing to reactions in flight on the image
var errCountersBusy = errors.New("reactions in flight")

// ReactionService maintains the like, dislike and favorite facts of each
// (user, image) cell together with the image counters that cache their cardinality.
//
// Each mutation holds the cell lock for its read-modify-write and registers
// itself on the image before touching the facts. The fact is written first and
// the counter follows with an atomic increment. Once the lock is held the
// writes run to completion even if the caller goes away.
type ReactionService struct {
	images    repositories.ImageRepository
	reactions repositories.ReactionRepository
	locker    lock.Locker
	cfg       ReactionConfig
	logger    *zap.Logger
}

// NewReactionService creates a new ReactionService
func NewReactionService(
	images repositories.ImageRepository,
	reactions repositories.ReactionRepository,
	locker lock.Locker,
	cfg ReactionConfig,
	logger *zap.Logger,
) *ReactionService {
	if cfg.CounterRetries == 0 {
		cfg.CounterRetries = DefaultReactionConfig.CounterRetries
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = DefaultReactionConfig.RetryInterval
	}
	if cfg.UpdateLease == 0 {
		cfg.UpdateLease = DefaultReactionConfig.UpdateLease
	}
	return &ReactionService{
		images:    images,
		reactions: reactions,
		locker:    locker,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *ReactionService) image(ctx context.Context, imageID string) (*models.Image, error) {
	return liveImage(ctx, s.images, imageID)
}

// liveImage loads an image, treating one that is being deleted as gone
func liveImage(ctx context.Context, images repositories.ImageRepository, imageID string) (*models.Image, error) {
	image, err := images.GetImageByID(ctx, imageID)
	if err != nil {
		return nil, storageError(err, fmt.Sprintf("image %s", imageID))
	}
	if image.Deleting {
		return nil, fmt.Errorf("%w: image %s", ErrNotFound, imageID)
	}
	return image, nil
}

func (s *ReactionService) retryPolicy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, s.cfg.CounterRetries), ctx)
}

// begin locks the cell and registers the update on the image. The returned
// context is detached from ctx: only the wait for the lock can be cancelled.
func (s *ReactionService) begin(ctx context.Context, userID uint, imageID string) (context.Context, string, func(), error) {
	unlock, err := s.locker.Lock(ctx, lock.CellKey(userID, imageID))
	if err != nil {
		return nil, "", nil, err
	}
	ctx = context.WithoutCancel(ctx)

	token, err := s.images.BeginUpdate(ctx, imageID)
	if err != nil {
		unlock()
		return nil, "", nil, storageError(err, fmt.Sprintf("image %s", imageID))
	}
	return ctx, token, func() {
		s.end(ctx, imageID, token)
		unlock()
	}, nil
}

func (s *ReactionService) end(ctx context.Context, imageID, token string) {
	err := backoff.Retry(func() error {
		return s.images.EndUpdate(ctx, imageID, token)
	}, s.retryPolicy(ctx))
	if err != nil {
		s.logger.Error("failed to clear pending update, recounts wait for its lease",
			zap.String("image_id", imageID), zap.Duration("lease", s.cfg.UpdateLease), zap.Error(err))
	}
}

// React sets the like/dislike state of the cell to action. Switching from the
// opposite reaction clears it first; repeating the current reaction changes nothing.
func (s *ReactionService) React(ctx context.Context, user *models.User, imageID string, action string) (*models.ReactionState, error) {
	kind := models.ReactionKind(action)
	opposite, ok := kind.Opposite()
	if !ok {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, action)
	}

	ctx, token, done, err := s.begin(ctx, user.ID, imageID)
	if err != nil {
		return nil, err
	}
	defer done()

	cleared, err := s.apply(ctx, token, opposite, user.ID, imageID, false)
	if err != nil {
		return nil, err
	}
	set, err := s.apply(ctx, token, kind, user.ID, imageID, true)
	if err != nil {
		return nil, err
	}

	outcome := "noop"
	if cleared || set {
		outcome = "changed"
		s.logger.Debug("reaction set",
			zap.Uint("user_id", user.ID), zap.String("image_id", imageID),
			zap.String("action", action), zap.Bool("cleared_opposite", cleared))
	}
	metrics.Reactions.WithLabelValues(action, outcome).Inc()

	return s.state(ctx, user.ID, imageID)
}

// ToggleFavorite flips the favorite bit of the cell. Two calls restore the original state.
func (s *ReactionService) ToggleFavorite(ctx context.Context, user *models.User, imageID string) (*models.ReactionState, error) {
	ctx, token, done, err := s.begin(ctx, user.ID, imageID)
	if err != nil {
		return nil, err
	}
	defer done()

	removed, err := s.apply(ctx, token, models.KindFavorite, user.ID, imageID, false)
	if err != nil {
		return nil, err
	}
	outcome := "removed"
	if !removed {
		if _, err := s.apply(ctx, token, models.KindFavorite, user.ID, imageID, true); err != nil {
			return nil, err
		}
		outcome = "added"
	}
	metrics.Reactions.WithLabelValues(string(models.KindFavorite), outcome).Inc()

	return s.state(ctx, user.ID, imageID)
}

// apply inserts (add) or deletes one fact and moves its counter. It reports
// whether the fact changed. When the counter cannot be moved the fact change
// is undone, so a failed call can be retried from scratch.
func (s *ReactionService) apply(ctx context.Context, token string, kind models.ReactionKind, userID uint, imageID string, add bool) (bool, error) {
	var changed bool
	var err error
	delta := int64(1)
	if add {
		changed, err = s.reactions.InsertFact(ctx, kind, userID, imageID)
	} else {
		changed, err = s.reactions.DeleteFact(ctx, kind, userID, imageID)
		delta = -1
	}
	if err != nil || !changed {
		return false, err
	}

	if err := s.adjust(ctx, imageID, token, kind, delta); err != nil {
		// A fact removed from a vanished image stays removed
		if add || !errors.Is(err, ErrNotFound) {
			s.undo(ctx, kind, userID, imageID, add, err)
		}
		return false, err
	}
	return true, nil
}

func (s *ReactionService) undo(ctx context.Context, kind models.ReactionKind, userID uint, imageID string, added bool, cause error) {
	var err error
	if added {
		_, err = s.reactions.DeleteFact(ctx, kind, userID, imageID)
	} else {
		_, err = s.reactions.InsertFact(ctx, kind, userID, imageID)
	}
	if err != nil {
		s.logger.Error("failed to undo reaction fact",
			zap.Uint("user_id", userID), zap.String("image_id", imageID), zap.String("kind", string(kind)),
			zap.NamedError("cause", cause), zap.Error(err))
	}
}

// adjust applies delta to the counter of kind, retrying with exponential backoff.
// When retries run out the image is recounted; if that fails too the counters are inconsistent.
func (s *ReactionService) adjust(ctx context.Context, imageID, token string, kind models.ReactionKind, delta int64) error {
	operation := func() error {
		err := s.images.IncrementCounter(ctx, imageID, kind, delta)
		if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, repositories.ErrInvalidID) {
			return backoff.Permanent(err)
		}
		if err != nil {
			metrics.CounterRetries.Inc()
		}
		return err
	}

	err := backoff.Retry(operation, s.retryPolicy(ctx))
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, repositories.ErrInvalidID) {
		return storageError(err, fmt.Sprintf("image %s", imageID))
	}

	s.logger.Warn("counter update failed, recounting",
		zap.String("image_id", imageID), zap.String("counter", kind.CounterField()), zap.Error(err))
	if _, rerr := s.recount(ctx, imageID, token); rerr != nil {
		s.logger.Error("recount after failed counter update failed",
			zap.String("image_id", imageID), zap.NamedError("update_error", err), zap.Error(rerr))
		if errors.Is(rerr, ErrNotFound) {
			return rerr
		}
		return fmt.Errorf("%w: image %s %s: %v", ErrInconsistent, imageID, kind.CounterField(), err)
	}
	return nil
}

func (s *ReactionService) state(ctx context.Context, userID uint, imageID string) (*models.ReactionState, error) {
	image, err := s.image(ctx, imageID)
	if err != nil {
		return nil, err
	}
	state := &models.ReactionState{ImageID: imageID, Counters: image.Counters()}
	for kind, flag := range map[models.ReactionKind]*bool{
		models.KindLike:     &state.Liked,
		models.KindDislike:  &state.Disliked,
		models.KindFavorite: &state.Favorited,
	} {
		if *flag, err = s.reactions.HasFact(ctx, kind, userID, imageID); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// Recount overwrites the counters of one image with the cardinality of its facts.
// The write only lands when no reaction was in flight on the image between
// reading the counters and counting the facts, so it is safe against live traffic.
func (s *ReactionService) Recount(ctx context.Context, imageID string) (models.CounterDelta, error) {
	return s.recount(ctx, imageID, "")
}

// recount ignores the pending marker own, held by the caller itself
func (s *ReactionService) recount(ctx context.Context, imageID, own string) (models.CounterDelta, error) {
	var delta models.CounterDelta
	operation := func() error {
		image, err := s.image(ctx, imageID)
		if err != nil {
			return backoff.Permanent(err)
		}
		staleBefore := time.Now().Add(-s.cfg.UpdateLease)
		if image.InFlight(staleBefore, own) {
			return errCountersBusy
		}

		counts := make(map[models.ReactionKind]int64, len(models.ReactionKinds))
		for _, kind := range models.ReactionKinds {
			n, err := s.reactions.CountFacts(ctx, kind, imageID)
			if err != nil {
				return backoff.Permanent(err)
			}
			counts[kind] = n
		}

		delta = models.CounterDelta{
			ImageID: imageID,
			Before:  image.Counters(),
			After: models.Counters{
				Likes:     counts[models.KindLike],
				Dislikes:  counts[models.KindDislike],
				Favorites: counts[models.KindFavorite],
			},
		}
		if !delta.Changed() {
			return nil
		}

		written, err := s.images.SetCounters(ctx, imageID, delta.After, image.Revision, staleBefore)
		if err != nil {
			return backoff.Permanent(storageError(err, fmt.Sprintf("image %s", imageID)))
		}
		if !written {
			return errCountersBusy
		}
		return nil
	}

	if err := backoff.Retry(operation, s.retryPolicy(ctx)); err != nil {
		if errors.Is(err, errCountersBusy) {
			return models.CounterDelta{}, fmt.Errorf("%w: image %s: %w", ErrInconsistent, imageID, err)
		}
		return models.CounterDelta{}, err
	}
	if !delta.Changed() {
		return delta, nil
	}

	if delta.Before.Likes != delta.After.Likes {
		metrics.CounterRepairs.WithLabelValues(models.KindLike.CounterField()).Inc()
	}
	if delta.Before.Dislikes != delta.After.Dislikes {
		metrics.CounterRepairs.WithLabelValues(models.KindDislike.CounterField()).Inc()
	}
	if delta.Before.Favorites != delta.After.Favorites {
		metrics.CounterRepairs.WithLabelValues(models.KindFavorite.CounterField()).Inc()
	}
	s.logger.Info("image counters repaired",
		zap.String("image_id", imageID),
		zap.Any("before", delta.Before),
		zap.Any("after", delta.After))
	return delta, nil
}

// RecountAll recounts every image and returns the deltas that changed something.
// Images deleted while the scan runs are skipped, and so are images that stay
// busy with reactions for the whole retry budget.
func (s *ReactionService) RecountAll(ctx context.Context) ([]models.CounterDelta, error) {
	ids, err := s.images.GetAllImageIDs(ctx)
	if err != nil {
		return nil, err
	}

	repaired := []models.CounterDelta{}
	busy := 0
	for _, id := range ids {
		delta, err := s.Recount(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if errors.Is(err, errCountersBusy) {
			s.logger.Warn("image busy, skipped", zap.String("image_id", id))
			busy++
			continue
		}
		if err != nil {
			return repaired, fmt.Errorf("recount image %s: %w", id, err)
		}
		if delta.Changed() {
			repaired = append(repaired, delta)
		}
	}
	s.logger.Info("recount finished", zap.Int("images", len(ids)), zap.Int("repaired", len(repaired)), zap.Int("busy", busy))
	return repaired, nil
}
