package models

import "time"

// FeedImage is one entry of a user's feed: the image, its counters, the
// viewer's own reaction flags and its comments.
type FeedImage struct {
	ID                 string        `json:"id"`
	Src                string        `json:"src"`
	Alt                string        `json:"alt"`
	FileID             string        `json:"fileId"`
	FileWidth          int           `json:"fileWidth"`
	FileHeight         int           `json:"fileHeight"`
	Likes              int64         `json:"likes"`
	Dislikes           int64         `json:"dislikes"`
	FavoriteCount      int64         `json:"favoriteCount"`
	IsLiked            bool          `json:"isLiked"`
	IsDisliked         bool          `json:"isDisliked"`
	IsFavorited        bool          `json:"isFavorited"`
	CommentCount       int           `json:"commentCount"`
	Comments           []CommentView `json:"comments"`
	UploadedByUsername string        `json:"uploadedByUsername"`
	CreatedAt          time.Time     `json:"createdAt"`
}
