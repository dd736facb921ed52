package service

import (
	"context"
	"testing"

	"circle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsVisible(t *testing.T) {
	t.Parallel()

	const author, viewer uint = 1, 2
	public := &models.Post{UserID: author, Visibility: models.VisibilityPublic}
	friendsOnly := &models.Post{UserID: author, Visibility: models.VisibilityFriendsOnly}

	rel := func(s models.FriendshipStatus) *models.Friendship {
		return &models.Friendship{UserID1: author, UserID2: viewer, Status: s}
	}

	tests := []struct {
		name   string
		post   *models.Post
		viewer uint
		rel    *models.Friendship
		want   bool
	}{
		{"public no relationship", public, viewer, nil, true},
		{"public pending", public, viewer, rel(models.FriendshipStatusPending), true},
		{"public accepted", public, viewer, rel(models.FriendshipStatusAccepted), true},
		{"public blocked", public, viewer, rel(models.FriendshipStatusBlocked), false},
		{"public anonymous", public, 0, nil, true},
		{"friends only no relationship", friendsOnly, viewer, nil, false},
		{"friends only pending", friendsOnly, viewer, rel(models.FriendshipStatusPending), false},
		{"friends only accepted", friendsOnly, viewer, rel(models.FriendshipStatusAccepted), true},
		{"friends only blocked", friendsOnly, viewer, rel(models.FriendshipStatusBlocked), false},
		{"friends only anonymous", friendsOnly, 0, nil, false},
		{"own public", public, author, nil, true},
		{"own friends only", friendsOnly, author, nil, true},
		{"own post with blocked row", friendsOnly, author, rel(models.FriendshipStatusBlocked), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsVisible(tt.post, tt.viewer, tt.rel))
		})
	}
}

type lookupStub struct {
	calls int
	rel   *models.Friendship
}

func (l *lookupStub) GetFriendshipBetween(context.Context, uint, uint) (*models.Friendship, error) {
	l.calls++
	return l.rel, nil
}

func TestVisibilityChecker_MemoizesPerAuthor(t *testing.T) {
	t.Parallel()

	lookup := &lookupStub{rel: &models.Friendship{Status: models.FriendshipStatusAccepted}}
	checker := newVisibilityChecker(lookup, 5)
	ctx := context.Background()

	for _, p := range []models.Post{
		{UserID: 1, Visibility: models.VisibilityFriendsOnly},
		{UserID: 1, Visibility: models.VisibilityPublic},
		{UserID: 2, Visibility: models.VisibilityPublic},
		{UserID: 5, Visibility: models.VisibilityFriendsOnly},
	} {
		ok, err := checker.check(ctx, &p)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 2, lookup.calls)
}

func TestVisibilityChecker_AnonymousSkipsLookup(t *testing.T) {
	t.Parallel()

	lookup := &lookupStub{}
	checker := newVisibilityChecker(lookup, 0)

	ok, err := checker.check(context.Background(), &models.Post{UserID: 1, Visibility: models.VisibilityFriendsOnly})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = checker.check(context.Background(), &models.Post{UserID: 1, Visibility: models.VisibilityPublic})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, lookup.calls)
}
