package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/repositories"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errRevisionMoved = errors.New("revision moved")

// ImageRepository is an in-memory repositories.ImageRepository
type ImageRepository struct {
	mu     sync.RWMutex
	images map[string]models.Image
}

// NewImageRepository creates an empty ImageRepository
func NewImageRepository() *ImageRepository {
	return &ImageRepository{images: make(map[string]models.Image)}
}

func validID(id string) error {
	if !primitive.IsValidObjectID(id) {
		return fmt.Errorf("%w: %q", repositories.ErrInvalidID, id)
	}
	return nil
}

// CreateImage stores the image with zeroed counters
func (r *ImageRepository) CreateImage(ctx context.Context, image *models.Image) error {
	image.ID = primitive.NewObjectID()
	image.CreatedAt = time.Now()
	image.LikeCount, image.DislikeCount, image.FavoriteCount = 0, 0, 0
	image.Revision, image.Pending, image.Deleting = 0, nil, false
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[image.ID.Hex()] = *image
	return nil
}

// GetImageByID retrieves an image by hex ID
func (r *ImageRepository) GetImageByID(ctx context.Context, id string) (*models.Image, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	image, ok := r.images[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	image.Pending = append([]models.PendingUpdate(nil), image.Pending...)
	return &image, nil
}

// GetImagesByOwnerIDs retrieves every image owned by one of ownerIDs, newest first
func (r *ImageRepository) GetImagesByOwnerIDs(ctx context.Context, ownerIDs []uint) ([]models.Image, error) {
	owners := make(map[uint]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	images := []models.Image{}
	for _, image := range r.images {
		if owners[image.OwnerID] && !image.Deleting {
			images = append(images, image)
		}
	}
	sort.Slice(images, func(i, j int) bool {
		if !images[i].CreatedAt.Equal(images[j].CreatedAt) {
			return images[i].CreatedAt.After(images[j].CreatedAt)
		}
		return images[i].ID.Hex() > images[j].ID.Hex()
	})
	return images, nil
}

// GetAllImageIDs returns the hex ID of every image
func (r *ImageRepository) GetAllImageIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.images))
	for id := range r.images {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// MarkDeleting flags the image so that no new reaction can start on it
func (r *ImageRepository) MarkDeleting(ctx context.Context, id string) error {
	return r.update(id, false, func(image *models.Image) error {
		image.Deleting = true
		return nil
	})
}

// DeleteImage deletes an image by hex ID
func (r *ImageRepository) DeleteImage(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.images[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.images, id)
	return nil
}

// update applies fn to the stored image under the write lock.
// With live set, images being deleted count as missing.
func (r *ImageRepository) update(id string, live bool, fn func(image *models.Image) error) error {
	if err := validID(id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	image, ok := r.images[id]
	if !ok || (live && image.Deleting) {
		return repositories.ErrNotFound
	}
	if err := fn(&image); err != nil {
		return err
	}
	r.images[id] = image
	return nil
}

// BeginUpdate registers a reaction in flight and bumps the revision
func (r *ImageRepository) BeginUpdate(ctx context.Context, id string) (string, error) {
	token := uuid.NewString()
	err := r.update(id, true, func(image *models.Image) error {
		image.Revision++
		image.Pending = append(image.Pending, models.PendingUpdate{Token: token, StartedAt: time.Now()})
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// EndUpdate clears the marker left by BeginUpdate
func (r *ImageRepository) EndUpdate(ctx context.Context, id, token string) error {
	err := r.update(id, false, func(image *models.Image) error {
		image.Pending = slices.DeleteFunc(slices.Clone(image.Pending), func(p models.PendingUpdate) bool {
			return p.Token == token
		})
		return nil
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	return err
}

// IncrementCounter adds delta to the counter caching kind
func (r *ImageRepository) IncrementCounter(ctx context.Context, id string, kind models.ReactionKind, delta int64) error {
	return r.update(id, true, func(image *models.Image) error {
		switch kind {
		case models.KindLike:
			image.LikeCount += delta
		case models.KindDislike:
			image.DislikeCount += delta
		case models.KindFavorite:
			image.FavoriteCount += delta
		default:
			return fmt.Errorf("unknown reaction kind %q", kind)
		}
		return nil
	})
}

// SetCounters overwrites all three counters if the image is still at revision
func (r *ImageRepository) SetCounters(ctx context.Context, id string, counters models.Counters, revision int64, staleBefore time.Time) (bool, error) {
	err := r.update(id, false, func(image *models.Image) error {
		if image.Revision != revision {
			return errRevisionMoved
		}
		image.LikeCount, image.DislikeCount, image.FavoriteCount = counters.Likes, counters.Dislikes, counters.Favorites
		image.Pending = slices.DeleteFunc(slices.Clone(image.Pending), func(p models.PendingUpdate) bool {
			return !p.StartedAt.After(staleBefore)
		})
		return nil
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errRevisionMoved), errors.Is(err, repositories.ErrNotFound):
		return false, nil
	}
	return false, err
}
