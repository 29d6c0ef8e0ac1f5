package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/walltribe/backend/internal/models"
)

// CommentRepository is an in-memory repositories.CommentRepository
type CommentRepository struct {
	mu       sync.RWMutex
	nextID   uint
	comments []models.Comment
}

// NewCommentRepository creates an empty CommentRepository
func NewCommentRepository() *CommentRepository {
	return &CommentRepository{}
}

// CreateComment appends a comment
func (r *CommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	comment.ID = r.nextID
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

// GetCommentsByImageID lists the comments on one image, newest first
func (r *CommentRepository) GetCommentsByImageID(ctx context.Context, imageID string) ([]models.Comment, error) {
	return r.GetCommentsByImageIDs(ctx, []string{imageID})
}

// GetCommentsByImageIDs lists the comments on any of imageIDs, newest first
func (r *CommentRepository) GetCommentsByImageIDs(ctx context.Context, imageIDs []string) ([]models.Comment, error) {
	wanted := make(map[string]bool, len(imageIDs))
	for _, id := range imageIDs {
		wanted[id] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	comments := []models.Comment{}
	for _, c := range r.comments {
		if wanted[c.ImageID] {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID > comments[j].ID })
	return comments, nil
}

// DeleteCommentsByImageID removes every comment on imageID
func (r *CommentRepository) DeleteCommentsByImageID(ctx context.Context, imageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.comments[:0]
	for _, c := range r.comments {
		if c.ImageID != imageID {
			kept = append(kept, c)
		}
	}
	r.comments = kept
	return nil
}
