package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Image is an uploaded picture stored in MongoDB. The three counters are
// denormalized caches of the Like, Dislike and Favorite fact tables.
//
// Revision grows every time a reaction starts, and Pending lists the reactions
// whose fact and counter writes have not both finished. A recount may only
// overwrite the counters when nothing is pending and the revision it read is unchanged.
type Image struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID       uint               `json:"owner_id" bson:"owner_id"`
	URL           string             `json:"url" bson:"url"`
	FileID        string             `json:"file_id" bson:"file_id"` // Reference into the external file store
	Alt           string             `json:"alt" bson:"alt"`
	FileWidth     int                `json:"file_width,omitempty" bson:"file_width,omitempty"`
	FileHeight    int                `json:"file_height,omitempty" bson:"file_height,omitempty"`
	LikeCount     int64              `json:"like_count" bson:"like_count"`
	DislikeCount  int64              `json:"dislike_count" bson:"dislike_count"`
	FavoriteCount int64              `json:"favorite_count" bson:"favorite_count"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	Revision      int64              `json:"-" bson:"revision"`
	Pending       []PendingUpdate    `json:"-" bson:"pending,omitempty"`
	Deleting      bool               `json:"-" bson:"deleting,omitempty"` // Set while the delete cascade runs
}

// PendingUpdate marks one reaction in flight on an image
type PendingUpdate struct {
	Token     string    `bson:"token"`
	StartedAt time.Time `bson:"started_at"`
}

// InFlight reports whether a reaction other than own, started after staleBefore, is still pending.
// Older markers belong to writers that died without clearing them.
func (i *Image) InFlight(staleBefore time.Time, own string) bool {
	for _, p := range i.Pending {
		if p.Token != own && p.StartedAt.After(staleBefore) {
			return true
		}
	}
	return false
}

// Counters returns the denormalized counters of the image
func (i *Image) Counters() Counters {
	return Counters{Likes: i.LikeCount, Dislikes: i.DislikeCount, Favorites: i.FavoriteCount}
}

// CreateImageRequest defines the request body for registering uploaded image metadata
type CreateImageRequest struct {
	URL        string `json:"url" validate:"required,url"`
	FileID     string `json:"file_id" validate:"required"`
	Alt        string `json:"alt,omitempty" validate:"omitempty,max=200"`
	FileWidth  int    `json:"file_width,omitempty" validate:"min=0"`
	FileHeight int    `json:"file_height,omitempty" validate:"min=0"`
}

// Counters groups the three reaction counters of an image
type Counters struct {
	Likes     int64 `json:"likes"`
	Dislikes  int64 `json:"dislikes"`
	Favorites int64 `json:"favorite_count"`
}

// Valid reports whether no counter is negative
func (c Counters) Valid() bool {
	return c.Likes >= 0 && c.Dislikes >= 0 && c.Favorites >= 0
}

// CounterDelta is the result of recounting one image
type CounterDelta struct {
	ImageID string   `json:"image_id"`
	Before  Counters `json:"before"`
	After   Counters `json:"after"`
}

// Changed reports whether the recount had to correct the stored counters
func (d CounterDelta) Changed() bool {
	return d.Before != d.After
}
