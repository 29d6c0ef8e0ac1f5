package models

import "time"

// FriendRequest is a directed, pending proposal of friendship.
// At most one row exists per unordered pair: PairLow and PairHigh hold the two
// endpoints in canonical order, so a request and its reverse cannot both exist.
type FriendRequest struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SenderID   uint      `json:"sender_id" gorm:"not null;index:idx_friend_request_direction"`
	ReceiverID uint      `json:"receiver_id" gorm:"not null;index:idx_friend_request_direction;index"`
	PairLow    uint      `json:"-" gorm:"not null;uniqueIndex:idx_friend_request_pair"`
	PairHigh   uint      `json:"-" gorm:"not null;uniqueIndex:idx_friend_request_pair"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewFriendRequest builds a request from sender to receiver
func NewFriendRequest(sender, receiver uint) *FriendRequest {
	req := &FriendRequest{SenderID: sender, ReceiverID: receiver}
	req.EnsurePair()
	return req
}

// EnsurePair fills PairLow and PairHigh from the sender and receiver
func (r *FriendRequest) EnsurePair() {
	r.PairLow, r.PairHigh = min(r.SenderID, r.ReceiverID), max(r.SenderID, r.ReceiverID)
}

// Friendship is an undirected edge stored with UserID1 < UserID2 so that
// the unique index on the ordered pair enforces one edge per unordered pair.
type Friendship struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID1   uint      `json:"user_id_1" gorm:"not null;uniqueIndex:idx_friendship_pair"`
	UserID2   uint      `json:"user_id_2" gorm:"not null;uniqueIndex:idx_friendship_pair;index"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFriendship builds a canonically ordered friendship between a and b
func NewFriendship(a, b uint) *Friendship {
	f := &Friendship{UserID1: a, UserID2: b}
	f.EnsureCanonicalOrder()
	return f
}

// EnsureCanonicalOrder sets UserID1 to the smaller ID and UserID2 to the larger ID.
func (f *Friendship) EnsureCanonicalOrder() {
	if f.UserID1 > f.UserID2 {
		f.UserID1, f.UserID2 = f.UserID2, f.UserID1
	}
}

// Other returns the endpoint of the edge that is not userID
func (f *Friendship) Other(userID uint) uint {
	if f.UserID1 == userID {
		return f.UserID2
	}
	return f.UserID1
}

// FriendRequestBody identifies the other party of a friend request by display name.
// Used for sending, accepting and rejecting.
type FriendRequestBody struct {
	Username string `json:"username" validate:"required,min=1,max=100"`
}

// FriendRequestView is an incoming request joined with its sender
type FriendRequestView struct {
	SenderID  uint      `json:"id"`
	Username  string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
