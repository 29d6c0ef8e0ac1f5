package services

import (
	"context"
	"fmt"

	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/repositories"
	"go.uber.org/zap"
)

// ImageService records metadata of images uploaded to the external file store
type ImageService struct {
	images    repositories.ImageRepository
	reactions repositories.ReactionRepository
	comments  repositories.CommentRepository
	logger    *zap.Logger
}

// NewImageService creates a new ImageService
func NewImageService(
	images repositories.ImageRepository,
	reactions repositories.ReactionRepository,
	comments repositories.CommentRepository,
	logger *zap.Logger,
) *ImageService {
	return &ImageService{images: images, reactions: reactions, comments: comments, logger: logger}
}

// Create stores a new image owned by owner with zero counters
func (s *ImageService) Create(ctx context.Context, owner *models.User, req models.CreateImageRequest) (*models.Image, error) {
	if req.URL == "" || req.FileID == "" {
		return nil, fmt.Errorf("%w: url and file_id are required", ErrInvalidArgument)
	}
	image := &models.Image{
		OwnerID:    owner.ID,
		URL:        req.URL,
		FileID:     req.FileID,
		Alt:        req.Alt,
		FileWidth:  req.FileWidth,
		FileHeight: req.FileHeight,
	}
	if err := s.images.CreateImage(ctx, image); err != nil {
		s.logger.Error("failed to create image", zap.Uint("owner_id", owner.ID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("image created", zap.String("image_id", image.ID.Hex()), zap.Uint("owner_id", owner.ID))
	return image, nil
}

// Delete removes an image owned by user. The image is first marked so that no
// reaction can start or move a counter on it, then comments and reaction facts
// go, and the document last. A partial failure leaves the marked image in place
// so the delete can be retried.
func (s *ImageService) Delete(ctx context.Context, user *models.User, imageID string) error {
	image, err := s.images.GetImageByID(ctx, imageID)
	if err != nil {
		return storageError(err, fmt.Sprintf("image %s", imageID))
	}
	if image.OwnerID != user.ID {
		return fmt.Errorf("%w: image %s belongs to another user", ErrForbidden, imageID)
	}

	if err := s.images.MarkDeleting(ctx, imageID); err != nil {
		return storageError(err, fmt.Sprintf("image %s", imageID))
	}
	if err := s.comments.DeleteCommentsByImageID(ctx, imageID); err != nil {
		return err
	}
	if err := s.reactions.DeleteFactsByImageID(ctx, imageID); err != nil {
		return err
	}
	if err := s.images.DeleteImage(ctx, imageID); err != nil {
		return storageError(err, fmt.Sprintf("image %s", imageID))
	}
	s.logger.Info("image deleted", zap.String("image_id", imageID), zap.Uint("owner_id", user.ID))
	return nil
}
