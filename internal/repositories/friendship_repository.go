package repositories

import (
	"context"

	"github.com/anonto42/walltribe/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendshipRepository defines the interface for friend request and friendship data operations.
// Every Create is an idempotent insert keyed by a unique index and reports whether a row was
// written; every Delete is a no-op when the row is already gone and reports whether one was removed.
type FriendshipRepository interface {
	CreateFriendRequest(ctx context.Context, req *models.FriendRequest) (bool, error)
	GetFriendRequest(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error)
	DeleteFriendRequest(ctx context.Context, senderID, receiverID uint) (bool, error)
	GetIncomingFriendRequests(ctx context.Context, receiverID uint) ([]models.FriendRequest, error)
	CreateFriendship(ctx context.Context, friendship *models.Friendship) (bool, error)
	AreFriends(ctx context.Context, userID1, userID2 uint) (bool, error)
	DeleteFriendship(ctx context.Context, userID1, userID2 uint) (bool, error)
	GetFriendIDs(ctx context.Context, userID uint) ([]uint, error)
}

// PostgresFriendshipRepository implements FriendshipRepository for PostgreSQL
type PostgresFriendshipRepository struct {
	db *gorm.DB
}

// NewPostgresFriendshipRepository creates a new PostgresFriendshipRepository
func NewPostgresFriendshipRepository(db *gorm.DB) *PostgresFriendshipRepository {
	return &PostgresFriendshipRepository{db: db}
}

// CreateFriendRequest inserts a request unless one already exists between the two users, in either direction
func (r *PostgresFriendshipRepository) CreateFriendRequest(ctx context.Context, req *models.FriendRequest) (bool, error) {
	req.EnsurePair()
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "pair_low"}, {Name: "pair_high"}}, DoNothing: true}).
		Create(req)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// GetFriendRequest retrieves the request sent by senderID to receiverID
func (r *PostgresFriendshipRepository) GetFriendRequest(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.WithContext(ctx).Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).First(&req).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

// DeleteFriendRequest deletes the request sent by senderID to receiverID
func (r *PostgresFriendshipRepository) DeleteFriendRequest(ctx context.Context, senderID, receiverID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).Delete(&models.FriendRequest{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetIncomingFriendRequests retrieves all requests addressed to receiverID, newest first
func (r *PostgresFriendshipRepository) GetIncomingFriendRequests(ctx context.Context, receiverID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).Where("receiver_id = ?", receiverID).Order("created_at DESC").Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// CreateFriendship inserts the canonically ordered edge. A duplicate is not an error.
func (r *PostgresFriendshipRepository) CreateFriendship(ctx context.Context, friendship *models.Friendship) (bool, error) {
	friendship.EnsureCanonicalOrder()
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id1"}, {Name: "user_id2"}}, DoNothing: true}).
		Create(friendship)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AreFriends checks both physical orderings of the pair
func (r *PostgresFriendshipRepository) AreFriends(ctx context.Context, userID1, userID2 uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("(user_id1 = ? AND user_id2 = ?) OR (user_id1 = ? AND user_id2 = ?)", userID1, userID2, userID2, userID1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteFriendship deletes the edge for the unordered pair
func (r *PostgresFriendshipRepository) DeleteFriendship(ctx context.Context, userID1, userID2 uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("(user_id1 = ? AND user_id2 = ?) OR (user_id1 = ? AND user_id2 = ?)", userID1, userID2, userID2, userID1).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetFriendIDs returns, for every friendship touching userID, the other endpoint
func (r *PostgresFriendshipRepository) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var friendships []models.Friendship
	err := r.db.WithContext(ctx).
		Where("user_id1 = ? OR user_id2 = ?", userID, userID).
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(friendships))
	for _, f := range friendships {
		ids = append(ids, f.Other(userID))
	}
	return ids, nil
}
