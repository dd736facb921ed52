package service

import (
	"context"

	"circle/internal/models"
	"circle/internal/observability"
)

// FriendshipLookup is the symmetric relationship query the visibility rules depend on.
type FriendshipLookup interface {
	GetFriendshipBetween(ctx context.Context, a, b uint) (*models.Friendship, error)
}

// IsVisible decides whether viewerID may read post, given the relationship
// between the author and the viewer (nil when there is none). Viewer 0 is anonymous.
func IsVisible(post *models.Post, viewerID uint, rel *models.Friendship) bool {
	if viewerID != 0 && post.UserID == viewerID {
		return true
	}
	if rel != nil && rel.Status == models.FriendshipStatusBlocked {
		return false
	}
	if post.Visibility == models.VisibilityFriendsOnly {
		return rel != nil && rel.Status == models.FriendshipStatusAccepted
	}
	return true
}

// visibilityChecker caches one relationship lookup per author for a viewer.
type visibilityChecker struct {
	friends  FriendshipLookup
	viewerID uint
	seen     map[uint]*models.Friendship
}

func newVisibilityChecker(friends FriendshipLookup, viewerID uint) *visibilityChecker {
	return &visibilityChecker{
		friends:  friends,
		viewerID: viewerID,
		seen:     make(map[uint]*models.Friendship),
	}
}

func (v *visibilityChecker) check(ctx context.Context, post *models.Post) (bool, error) {
	if v.viewerID != 0 && post.UserID == v.viewerID {
		observability.VisibilityDecisions.WithLabelValues("own").Inc()
		return true, nil
	}

	rel, err := v.relationship(ctx, post.UserID)
	if err != nil {
		return false, err
	}

	visible := IsVisible(post, v.viewerID, rel)
	if visible {
		observability.VisibilityDecisions.WithLabelValues("visible").Inc()
	} else {
		observability.VisibilityDecisions.WithLabelValues("hidden").Inc()
	}
	return visible, nil
}

func (v *visibilityChecker) relationship(ctx context.Context, authorID uint) (*models.Friendship, error) {
	// anonymous viewers have no relationships
	if v.viewerID == 0 {
		return nil, nil
	}
	if rel, ok := v.seen[authorID]; ok {
		return rel, nil
	}
	rel, err := v.friends.GetFriendshipBetween(ctx, authorID, v.viewerID)
	if err != nil {
		return nil, err
	}
	v.seen[authorID] = rel
	return rel, nil
}
