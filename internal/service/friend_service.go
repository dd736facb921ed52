package service

import (
	"context"
	"fmt"
	"time"

	"circle/internal/middleware"
	"circle/internal/models"
	"circle/internal/observability"
	"circle/internal/repository"
)

// FriendService is the friendship state machine.
//
//	(none) --SendRequest--> pending --AcceptRequest--> accepted
//	                        pending --RejectRequest--> (none)
//	                           any  --BlockFriend----> blocked
//
// Accept, reject and block address the row stored as (requester, receiver)
// and never the reverse order.
type FriendService struct {
	friendRepo repository.FriendRepository
	now        func() time.Time
}

// NewFriendService returns a new FriendService.
func NewFriendService(friendRepo repository.FriendRepository) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		now:        time.Now,
	}
}

// SendRequest records a pending request from requesterID to receiverID.
// Existing rows between the two users are not consulted.
func (s *FriendService) SendRequest(ctx context.Context, requesterID, receiverID uint) (*models.Friendship, error) {
	if requesterID == receiverID {
		return nil, models.NewValidationError("Cannot send friend request to yourself")
	}

	friendship := &models.Friendship{
		UserID1:   requesterID,
		UserID2:   receiverID,
		Status:    models.FriendshipStatusPending,
		CreatedAt: s.now(),
	}
	if err := s.friendRepo.Create(ctx, friendship); err != nil {
		return nil, err
	}

	s.logTransition(ctx, friendship, models.FriendshipStatusPending)
	return friendship, nil
}

// AcceptRequest marks the (requesterID, receiverID) row accepted.
func (s *FriendService) AcceptRequest(ctx context.Context, requesterID, receiverID uint) (*models.Friendship, error) {
	return s.transition(ctx, requesterID, receiverID, models.FriendshipStatusAccepted)
}

// BlockFriend marks the (requesterID, receiverID) row blocked.
func (s *FriendService) BlockFriend(ctx context.Context, requesterID, receiverID uint) (*models.Friendship, error) {
	return s.transition(ctx, requesterID, receiverID, models.FriendshipStatusBlocked)
}

// RejectRequest deletes the (requesterID, receiverID) row. There is no rejected state.
func (s *FriendService) RejectRequest(ctx context.Context, requesterID, receiverID uint) (*models.Friendship, error) {
	friendship, err := s.exactPair(ctx, requesterID, receiverID)
	if err != nil {
		return nil, err
	}
	if err := s.friendRepo.Delete(ctx, friendship.ID); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "friend request rejected",
		"friendship_id", friendship.ID, "requester_id", requesterID, "receiver_id", receiverID)
	observability.FriendshipTransitions.WithLabelValues("rejected").Inc()
	return friendship, nil
}

// GetFriendships returns every row in which userID is either party.
func (s *FriendService) GetFriendships(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.friendRepo.ListForUser(ctx, userID)
}

// GetFriendshipBetween probes (a, b) and then (b, a). It returns nil, nil
// when neither row exists.
func (s *FriendService) GetFriendshipBetween(ctx context.Context, a, b uint) (*models.Friendship, error) {
	friendship, err := s.friendRepo.GetByPair(ctx, a, b)
	if err != nil || friendship != nil {
		return friendship, err
	}
	return s.friendRepo.GetByPair(ctx, b, a)
}

func (s *FriendService) transition(ctx context.Context, requesterID, receiverID uint, to models.FriendshipStatus) (*models.Friendship, error) {
	friendship, err := s.exactPair(ctx, requesterID, receiverID)
	if err != nil {
		return nil, err
	}
	if err := s.friendRepo.UpdateStatus(ctx, friendship.ID, to); err != nil {
		return nil, err
	}

	friendship.Status = to
	s.logTransition(ctx, friendship, to)
	return friendship, nil
}

func (s *FriendService) exactPair(ctx context.Context, requesterID, receiverID uint) (*models.Friendship, error) {
	friendship, err := s.friendRepo.GetByPair(ctx, requesterID, receiverID)
	if err != nil {
		return nil, err
	}
	if friendship == nil {
		return nil, models.NewNotFoundError("Friendship", fmt.Sprintf("%d->%d", requesterID, receiverID))
	}
	return friendship, nil
}

func (s *FriendService) logTransition(ctx context.Context, f *models.Friendship, to models.FriendshipStatus) {
	middleware.Logger.InfoContext(ctx, "friendship status changed",
		"friendship_id", f.ID, "user_id1", f.UserID1, "user_id2", f.UserID2, "status", string(to))
	observability.FriendshipTransitions.WithLabelValues(string(to)).Inc()
}
