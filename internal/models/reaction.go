package models

import "time"

// ReactionKind names one of the three per-(user, image) fact relations
type ReactionKind string

const (
	KindLike     ReactionKind = "like"
	KindDislike  ReactionKind = "dislike"
	KindFavorite ReactionKind = "favorite"
)

// ReactionKinds lists every fact relation
var ReactionKinds = []ReactionKind{KindLike, KindDislike, KindFavorite}

// CounterField returns the image document field that caches the cardinality of this relation
func (k ReactionKind) CounterField() string {
	switch k {
	case KindLike:
		return "like_count"
	case KindDislike:
		return "dislike_count"
	case KindFavorite:
		return "favorite_count"
	}
	return ""
}

// Opposite returns the relation that is mutually exclusive with k, if any
func (k ReactionKind) Opposite() (ReactionKind, bool) {
	switch k {
	case KindLike:
		return KindDislike, true
	case KindDislike:
		return KindLike, true
	}
	return "", false
}

// Like records that a user likes an image
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_like_user_image"`
	ImageID   string    `json:"image_id" gorm:"size:24;not null;uniqueIndex:idx_like_user_image;index"` // MongoDB ObjectID hex
	CreatedAt time.Time `json:"created_at"`
}

// Dislike records that a user dislikes an image
type Dislike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_dislike_user_image"`
	ImageID   string    `json:"image_id" gorm:"size:24;not null;uniqueIndex:idx_dislike_user_image;index"`
	CreatedAt time.Time `json:"created_at"`
}

// Favorite is a per-user bookmark on an image, independent of like/dislike
type Favorite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_favorite_user_image"`
	ImageID   string    `json:"image_id" gorm:"size:24;not null;uniqueIndex:idx_favorite_user_image;index"`
	CreatedAt time.Time `json:"created_at"`
}

// ReactRequest defines the request body for liking or disliking an image
type ReactRequest struct {
	Action string `json:"action" validate:"required,oneof=like dislike"`
}

// ReactionState is the viewer's cell for one image plus the image counters after a mutation
type ReactionState struct {
	ImageID   string `json:"image_id"`
	Liked     bool   `json:"is_liked"`
	Disliked  bool   `json:"is_disliked"`
	Favorited bool   `json:"is_favorited"`
	Counters
}
