package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/repositories"
	"github.com/anonto42/walltribe/backend/pkg/metrics"
	"go.uber.org/zap"
)

// RelationshipService owns the friend-request and friendship state machine
// of every user pair: none, pending in either direction, or friends.
//
// No multi-statement transaction is used. Every insert is idempotent on its
// unique key and every delete is a no-op when the row is already gone, so
// each operation can be retried or raced without producing a second edge.
type RelationshipService struct {
	identity    *IdentityService
	users       repositories.UserRepository
	friendships repositories.FriendshipRepository
	cache       repositories.FriendCache // optional
	logger      *zap.Logger
}

// NewRelationshipService creates a new RelationshipService. cache may be nil.
func NewRelationshipService(
	identity *IdentityService,
	users repositories.UserRepository,
	friendships repositories.FriendshipRepository,
	cache repositories.FriendCache,
	logger *zap.Logger,
) *RelationshipService {
	return &RelationshipService{
		identity:    identity,
		users:       users,
		friendships: friendships,
		cache:       cache,
		logger:      logger,
	}
}

func (s *RelationshipService) record(outcome Outcome) Outcome {
	metrics.FriendshipTransitions.WithLabelValues(string(outcome)).Inc()
	return outcome
}

func (s *RelationshipService) requestExists(ctx context.Context, senderID, receiverID uint) (bool, error) {
	_, err := s.friendships.GetFriendRequest(ctx, senderID, receiverID)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// other resolves the counterpart of an operation and rejects self-targeting
func (s *RelationshipService) other(ctx context.Context, user *models.User, name string) (*models.User, error) {
	other, err := s.identity.FindByDisplayName(ctx, name)
	if err != nil {
		return nil, err
	}
	if other.ID == user.ID {
		return nil, fmt.Errorf("%w: cannot target yourself", ErrInvalidArgument)
	}
	return other, nil
}

// SendRequest proposes a friendship from sender to the user named targetName.
// A request in either direction or an existing friendship is reported as a soft conflict.
func (s *RelationshipService) SendRequest(ctx context.Context, sender *models.User, targetName string) (Outcome, error) {
	target, err := s.other(ctx, sender, targetName)
	if err != nil {
		return "", err
	}

	friends, err := s.friendships.AreFriends(ctx, sender.ID, target.ID)
	if err != nil {
		return "", err
	}
	if friends {
		return s.record(OutcomeAlreadyFriends), nil
	}

	for _, pair := range [][2]uint{{sender.ID, target.ID}, {target.ID, sender.ID}} {
		exists, err := s.requestExists(ctx, pair[0], pair[1])
		if err != nil {
			return "", err
		}
		if exists {
			return s.record(OutcomeAlreadyPending), nil
		}
	}

	created, err := s.friendships.CreateFriendRequest(ctx, models.NewFriendRequest(sender.ID, target.ID))
	if err != nil {
		s.logger.Error("failed to create friend request",
			zap.Uint("sender_id", sender.ID), zap.Uint("receiver_id", target.ID), zap.Error(err))
		return "", err
	}
	if !created {
		return s.record(OutcomeAlreadyPending), nil
	}

	s.logger.Info("friend request sent", zap.Uint("sender_id", sender.ID), zap.Uint("receiver_id", target.ID))
	return s.record(OutcomeRequestSent), nil
}

// AcceptRequest turns the request sent by requesterName to accepter into a friendship.
// The friendship is inserted before the request is deleted, so a concurrent or
// repeated accept observes either the request or the edge and reports already_friends.
func (s *RelationshipService) AcceptRequest(ctx context.Context, accepter *models.User, requesterName string) (Outcome, error) {
	requester, err := s.other(ctx, accepter, requesterName)
	if err != nil {
		return "", err
	}

	pending, err := s.requestExists(ctx, requester.ID, accepter.ID)
	if err != nil {
		return "", err
	}
	if !pending {
		friends, err := s.friendships.AreFriends(ctx, accepter.ID, requester.ID)
		if err != nil {
			return "", err
		}
		if friends {
			return s.record(OutcomeAlreadyFriends), nil
		}
		own, err := s.requestExists(ctx, accepter.ID, requester.ID)
		if err != nil {
			return "", err
		}
		if own {
			return "", fmt.Errorf("%w: cannot accept your own friend request", ErrInvalidArgument)
		}
		return "", fmt.Errorf("%w: no pending request from %q", ErrNotFound, requesterName)
	}

	created, err := s.friendships.CreateFriendship(ctx, models.NewFriendship(requester.ID, accepter.ID))
	if err != nil {
		s.logger.Error("failed to create friendship",
			zap.Uint("requester_id", requester.ID), zap.Uint("accepter_id", accepter.ID), zap.Error(err))
		return "", err
	}

	// Clear both directions so no request survives the friendship
	if _, err := s.friendships.DeleteFriendRequest(ctx, requester.ID, accepter.ID); err != nil {
		return "", err
	}
	if _, err := s.friendships.DeleteFriendRequest(ctx, accepter.ID, requester.ID); err != nil {
		return "", err
	}
	s.invalidate(ctx, requester.ID, accepter.ID)

	if !created {
		s.logger.Debug("friendship already existed on accept",
			zap.Uint("requester_id", requester.ID), zap.Uint("accepter_id", accepter.ID))
		return s.record(OutcomeAlreadyFriends), nil
	}
	s.logger.Info("friend request accepted", zap.Uint("requester_id", requester.ID), zap.Uint("accepter_id", accepter.ID))
	return s.record(OutcomeFriendshipCreated), nil
}

// RejectRequest deletes the pending request between user and otherName. Either party may reject.
func (s *RelationshipService) RejectRequest(ctx context.Context, user *models.User, otherName string) (Outcome, error) {
	other, err := s.other(ctx, user, otherName)
	if err != nil {
		return "", err
	}

	incoming, err := s.friendships.DeleteFriendRequest(ctx, other.ID, user.ID)
	if err != nil {
		return "", err
	}
	outgoing, err := s.friendships.DeleteFriendRequest(ctx, user.ID, other.ID)
	if err != nil {
		return "", err
	}
	if !incoming && !outgoing {
		return "", fmt.Errorf("%w: no pending request with %q", ErrNotFound, otherName)
	}

	s.logger.Info("friend request rejected", zap.Uint("user_id", user.ID), zap.Uint("other_id", other.ID))
	return s.record(OutcomeRequestRejected), nil
}

// RemoveFriend deletes the friendship between user and otherName
func (s *RelationshipService) RemoveFriend(ctx context.Context, user *models.User, otherName string) (Outcome, error) {
	other, err := s.other(ctx, user, otherName)
	if err != nil {
		return "", err
	}

	deleted, err := s.friendships.DeleteFriendship(ctx, user.ID, other.ID)
	if err != nil {
		return "", err
	}
	if !deleted {
		return "", fmt.Errorf("%w: not friends with %q", ErrNotFound, otherName)
	}
	s.invalidate(ctx, user.ID, other.ID)

	s.logger.Info("friend removed", zap.Uint("user_id", user.ID), zap.Uint("other_id", other.ID))
	return s.record(OutcomeFriendRemoved), nil
}

// ListFriends returns the other endpoint of every friendship touching user
func (s *RelationshipService) ListFriends(ctx context.Context, user *models.User) ([]models.UserCompact, error) {
	ids, err := s.FriendIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	friends := make([]models.UserCompact, 0, len(users))
	for i := range users {
		friends = append(friends, users[i].ToCompact())
	}
	return friends, nil
}

// ListIncoming returns every request addressed to user, newest first
func (s *RelationshipService) ListIncoming(ctx context.Context, user *models.User) ([]models.FriendRequestView, error) {
	requests, err := s.friendships.GetIncomingFriendRequests(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return []models.FriendRequestView{}, nil
	}

	senderIDs := make([]uint, 0, len(requests))
	for _, req := range requests {
		senderIDs = append(senderIDs, req.SenderID)
	}
	senders, err := s.users.GetUsersByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.User, len(senders))
	for _, u := range senders {
		byID[u.ID] = u
	}

	views := make([]models.FriendRequestView, 0, len(requests))
	for _, req := range requests {
		sender, ok := byID[req.SenderID]
		if !ok {
			continue
		}
		views = append(views, models.FriendRequestView{
			SenderID:  sender.ID,
			Username:  sender.Username,
			Email:     sender.Email,
			CreatedAt: req.CreatedAt,
		})
	}
	return views, nil
}

// FriendIDs returns the IDs of userID's friends, through the cache when one is configured.
// Cache failures are logged and fall back to storage.
func (s *RelationshipService) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var version int64
	cacheable := false
	if s.cache != nil {
		ids, v, ok, err := s.cache.GetFriendIDs(ctx, userID)
		switch {
		case err != nil:
			s.logger.Warn("friend cache read failed", zap.Uint("user_id", userID), zap.Error(err))
		case ok:
			return ids, nil
		default:
			version, cacheable = v, true
		}
	}

	ids, err := s.friendships.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.SetFriendIDs(ctx, userID, ids, version); err != nil {
			s.logger.Warn("friend cache write failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
	return ids, nil
}

func (s *RelationshipService) invalidate(ctx context.Context, userIDs ...uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userIDs...); err != nil {
		s.logger.Warn("friend cache invalidation failed", zap.Uints("user_ids", userIDs), zap.Error(err))
	}
}
