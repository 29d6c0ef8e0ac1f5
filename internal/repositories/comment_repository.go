package repositories

import (
	"context"

	"github.com/anonto42/walltribe/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByImageID(ctx context.Context, imageID string) ([]models.Comment, error)
	GetCommentsByImageIDs(ctx context.Context, imageIDs []string) ([]models.Comment, error)
	DeleteCommentsByImageID(ctx context.Context, imageID string) error
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// CreateComment creates a new comment in PostgreSQL
func (r *PostgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// GetCommentsByImageID retrieves the comments of one image, newest first
func (r *PostgresCommentRepository) GetCommentsByImageID(ctx context.Context, imageID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).Where("image_id = ?", imageID).Order("created_at DESC, id DESC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// GetCommentsByImageIDs retrieves the comments of several images, newest first
func (r *PostgresCommentRepository) GetCommentsByImageIDs(ctx context.Context, imageIDs []string) ([]models.Comment, error) {
	var comments []models.Comment
	if len(imageIDs) == 0 {
		return comments, nil
	}
	if err := r.db.WithContext(ctx).Where("image_id IN ?", imageIDs).Order("created_at DESC, id DESC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// DeleteCommentsByImageID deletes every comment of the image
func (r *PostgresCommentRepository) DeleteCommentsByImageID(ctx context.Context, imageID string) error {
	return r.db.WithContext(ctx).Where("image_id = ?", imageID).Delete(&models.Comment{}).Error
}
