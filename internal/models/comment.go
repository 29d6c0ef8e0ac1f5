package models

import "time"

// Comment represents a comment on an image. Comments are append-only.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ImageID   string    `json:"image_id" gorm:"size:24;not null;index"` // MongoDB ObjectID hex of the image
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// CommentView is a comment annotated with its author
type CommentView struct {
	ID        uint        `json:"id"`
	Content   string      `json:"content"`
	User      UserCompact `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
}
