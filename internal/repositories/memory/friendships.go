package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/repositories"
)

type pair struct{ a, b uint }

// FriendshipRepository is an in-memory repositories.FriendshipRepository.
// Requests are keyed by the ordered pair, friendships by the canonical pair.
type FriendshipRepository struct {
	mu          sync.RWMutex
	nextID      uint
	requests    map[pair]models.FriendRequest
	friendships map[pair]models.Friendship
}

// NewFriendshipRepository creates an empty FriendshipRepository
func NewFriendshipRepository() *FriendshipRepository {
	return &FriendshipRepository{
		requests:    make(map[pair]models.FriendRequest),
		friendships: make(map[pair]models.Friendship),
	}
}

// CreateFriendRequest inserts the request unless one exists between the two users, in either direction
func (r *FriendshipRepository) CreateFriendRequest(ctx context.Context, req *models.FriendRequest) (bool, error) {
	req.EnsurePair()
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pair{req.SenderID, req.ReceiverID}
	if _, ok := r.requests[key]; ok {
		return false, nil
	}
	if _, ok := r.requests[pair{req.ReceiverID, req.SenderID}]; ok {
		return false, nil
	}
	r.nextID++
	req.ID = r.nextID
	req.CreatedAt = time.Now()
	r.requests[key] = *req
	return true, nil
}

// GetFriendRequest retrieves the request sent by senderID to receiverID
func (r *FriendshipRepository) GetFriendRequest(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[pair{senderID, receiverID}]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &req, nil
}

// DeleteFriendRequest deletes the request if present
func (r *FriendshipRepository) DeleteFriendRequest(ctx context.Context, senderID, receiverID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pair{senderID, receiverID}
	if _, ok := r.requests[key]; !ok {
		return false, nil
	}
	delete(r.requests, key)
	return true, nil
}

// GetIncomingFriendRequests lists requests addressed to receiverID, newest first
func (r *FriendshipRepository) GetIncomingFriendRequests(ctx context.Context, receiverID uint) ([]models.FriendRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	requests := []models.FriendRequest{}
	for _, req := range r.requests {
		if req.ReceiverID == receiverID {
			requests = append(requests, req)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID > requests[j].ID })
	return requests, nil
}

// CreateFriendship inserts the canonical edge unless it exists
func (r *FriendshipRepository) CreateFriendship(ctx context.Context, friendship *models.Friendship) (bool, error) {
	friendship.EnsureCanonicalOrder()
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pair{friendship.UserID1, friendship.UserID2}
	if _, ok := r.friendships[key]; ok {
		return false, nil
	}
	r.nextID++
	friendship.ID = r.nextID
	friendship.CreatedAt = time.Now()
	r.friendships[key] = *friendship
	return true, nil
}

// AreFriends checks both orderings of the pair
func (r *FriendshipRepository) AreFriends(ctx context.Context, userID1, userID2 uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok1 := r.friendships[pair{userID1, userID2}]
	_, ok2 := r.friendships[pair{userID2, userID1}]
	return ok1 || ok2, nil
}

// DeleteFriendship deletes the edge in either ordering
func (r *FriendshipRepository) DeleteFriendship(ctx context.Context, userID1, userID2 uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := false
	for _, key := range []pair{{userID1, userID2}, {userID2, userID1}} {
		if _, ok := r.friendships[key]; ok {
			delete(r.friendships, key)
			deleted = true
		}
	}
	return deleted, nil
}

// GetFriendIDs returns the other endpoint of every edge touching userID
func (r *FriendshipRepository) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := []uint{}
	for _, f := range r.friendships {
		if f.UserID1 == userID || f.UserID2 == userID {
			ids = append(ids, f.Other(userID))
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Counts returns the number of stored requests and friendships
func (r *FriendshipRepository) Counts() (requests, friendships int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.requests), len(r.friendships)
}
