package server

import (
	"context"
	"fmt"

	"circle/internal/middleware"
	"circle/internal/models"

	"github.com/gofiber/fiber/v2"
)

// friendParty says which side of the userId1 -> userId2 pair the caller must be.
type friendParty int

const (
	eitherParty friendParty = iota
	requesterParty
	receiverParty
)

// friendPair reads userId1/userId2 and checks the caller against party.
func friendPair(c *fiber.Ctx, party friendParty) (uint, uint, error) {
	a, err := queryUint(c, "userId1")
	if err != nil {
		return 0, 0, err
	}
	b, err := queryUint(c, "userId2")
	if err != nil {
		return 0, 0, err
	}

	caller := middleware.UserID(c)
	var forbidden *models.AppError
	switch party {
	case requesterParty:
		if caller != a {
			forbidden = models.NewForbiddenError("Friend requests can only be sent as yourself")
		}
	case receiverParty:
		if caller != b {
			forbidden = models.NewForbiddenError("Only the receiver can accept a friend request")
		}
	default:
		pair := models.Friendship{UserID1: a, UserID2: b}
		if !pair.Involves(caller) {
			forbidden = models.NewForbiddenError("You can only manage your own friendships")
		}
	}
	if forbidden != nil {
		_ = respond(c, forbidden)
		return 0, 0, errResponseWritten
	}
	return a, b, nil
}

// GetFriendships handles GET /api/friendships?userId=&status=
func (s *Server) GetFriendships(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if c.Query("userId") != "" {
		id, err := queryUint(c, "userId")
		if err != nil {
			return nil
		}
		if id != userID {
			return respond(c, models.NewForbiddenError("You can only list your own friendships"))
		}
	}

	var status models.FriendshipStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseFriendshipStatus(raw)
		if err != nil {
			return respond(c, err)
		}
		status = parsed
	}

	friendships, err := s.friendService.GetFriendships(c.UserContext(), userID)
	if err != nil {
		return respond(c, err)
	}
	if status == "" {
		return c.JSON(friendships)
	}

	filtered := make([]models.Friendship, 0, len(friendships))
	for _, f := range friendships {
		if f.Status == status {
			filtered = append(filtered, f)
		}
	}
	return c.JSON(filtered)
}

// GetFriendshipBetween handles GET /api/friendships/between, in either direction.
func (s *Server) GetFriendshipBetween(c *fiber.Ctx) error {
	a, b, err := friendPair(c, eitherParty)
	if err != nil {
		return nil
	}
	f, err := s.friendService.GetFriendshipBetween(c.UserContext(), a, b)
	if err != nil {
		return respond(c, err)
	}
	if f == nil {
		return respond(c, models.NewNotFoundError("Friendship", fmt.Sprintf("%d<->%d", a, b)))
	}
	return c.JSON(f)
}

// SendFriendRequest handles POST /api/friendships/request. The caller is always the requester.
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	a, b, err := friendPair(c, requesterParty)
	if err != nil {
		return nil
	}
	ctx := c.UserContext()
	f, err := s.friendService.SendRequest(ctx, a, b)
	if err != nil {
		return respond(c, err)
	}

	s.publishUserEvent(ctx, f.UserID2, EventFriendRequestReceived, friendshipPayload(f))
	return c.Status(fiber.StatusCreated).JSON(f)
}

// AcceptFriendRequest handles POST /api/friendships/accept. Only the receiver may accept.
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	return s.friendTransition(c, receiverParty, s.friendService.AcceptRequest, func(ctx context.Context, f *models.Friendship) {
		s.publishUserEvent(ctx, f.UserID1, EventFriendRequestAccepted, friendshipPayload(f))
	})
}

// RejectFriendRequest handles POST /api/friendships/reject. The pending row is removed.
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	return s.friendTransition(c, eitherParty, s.friendService.RejectRequest, func(ctx context.Context, f *models.Friendship) {
		s.publishUserEvent(ctx, f.UserID1, EventFriendRequestRejected, friendshipPayload(f))
	})
}

// BlockFriend handles POST /api/friendships/block
func (s *Server) BlockFriend(c *fiber.Ctx) error {
	return s.friendTransition(c, eitherParty, s.friendService.BlockFriend, func(ctx context.Context, f *models.Friendship) {
		payload := friendshipPayload(f)
		s.publishUserEvent(ctx, f.UserID1, EventFriendBlocked, payload)
		s.publishUserEvent(ctx, f.UserID2, EventFriendBlocked, payload)
	})
}

type friendshipTransition func(ctx context.Context, requesterID, receiverID uint) (*models.Friendship, error)

func (s *Server) friendTransition(c *fiber.Ctx, party friendParty, apply friendshipTransition, notify func(context.Context, *models.Friendship)) error {
	a, b, err := friendPair(c, party)
	if err != nil {
		return nil
	}
	ctx := c.UserContext()
	f, err := apply(ctx, a, b)
	if err != nil {
		return respond(c, err)
	}
	notify(ctx, f)
	return c.JSON(f)
}
