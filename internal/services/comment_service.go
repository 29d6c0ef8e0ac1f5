package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/repositories"
	"go.uber.org/zap"
)

// CommentService appends comments to images and lists them with their authors
type CommentService struct {
	comments repositories.CommentRepository
	images   repositories.ImageRepository
	users    repositories.UserRepository
	logger   *zap.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(
	comments repositories.CommentRepository,
	images repositories.ImageRepository,
	users repositories.UserRepository,
	logger *zap.Logger,
) *CommentService {
	return &CommentService{comments: comments, images: images, users: users, logger: logger}
}

// Create adds a comment by author on imageID
func (s *CommentService) Create(ctx context.Context, author *models.User, imageID, content string) (*models.CommentView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment is empty", ErrInvalidArgument)
	}
	if _, err := liveImage(ctx, s.images, imageID); err != nil {
		return nil, err
	}

	comment := &models.Comment{ImageID: imageID, UserID: author.ID, Content: content}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		s.logger.Error("failed to create comment", zap.String("image_id", imageID), zap.Uint("user_id", author.ID), zap.Error(err))
		return nil, err
	}

	return &models.CommentView{
		ID:        comment.ID,
		Content:   comment.Content,
		User:      author.ToCompact(),
		CreatedAt: comment.CreatedAt,
	}, nil
}

// List returns the comments on imageID, newest first
func (s *CommentService) List(ctx context.Context, imageID string) ([]models.CommentView, error) {
	if _, err := liveImage(ctx, s.images, imageID); err != nil {
		return nil, err
	}

	comments, err := s.comments.GetCommentsByImageID(ctx, imageID)
	if err != nil {
		return nil, err
	}

	authorIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.UserID)
	}
	authors, err := s.users.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(authors))
	for _, u := range authors {
		names[u.ID] = u.Username
	}

	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, models.CommentView{
			ID:        c.ID,
			Content:   c.Content,
			User:      models.UserCompact{ID: c.UserID, Username: names[c.UserID]},
			CreatedAt: c.CreatedAt,
		})
	}
	return views, nil
}
