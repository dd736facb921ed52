package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"circle/internal/notifications"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecks(t *testing.T) {
	ts := newTestServer(t)

	var live map[string]interface{}
	assert.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/health/live", "", nil, &live))
	assert.Equal(t, "up", live["status"])

	var ready struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	assert.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/health/ready", "", nil, &ready))
	assert.Equal(t, "healthy", ready.Checks["database"])
	assert.Equal(t, "healthy", ready.Checks["redis"])
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice")

	var login struct {
		Token string `json:"token"`
	}
	status := ts.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": testPassword,
	}, &login)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, login.Token)

	var bad errorBody
	status = ts.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "Wrong-Password-1",
	}, &bad)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", bad.Code)

	var me struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/users/me", login.Token, nil, &me))
	assert.Equal(t, alice.ID, me.ID)
	assert.Empty(t, me.Password, "password hash is never serialized")

	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPost, "/api/auth/logout", login.Token, nil, nil))

	var revoked errorBody
	assert.Equal(t, http.StatusUnauthorized, ts.call(t, http.MethodGet, "/api/users/me", login.Token, nil, &revoked))
	assert.Equal(t, "INVALID_TOKEN", revoked.Code)

	// other sessions are unaffected
	assert.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/users/me", alice.Token, nil, nil))
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	var missing errorBody
	assert.Equal(t, http.StatusUnauthorized, ts.call(t, http.MethodPost, "/api/posts", "", map[string]string{"content": "x"}, &missing))
	assert.Equal(t, "UNAUTHORIZED", missing.Code)

	var invalid errorBody
	assert.Equal(t, http.StatusUnauthorized, ts.call(t, http.MethodPost, "/api/posts", "garbage", map[string]string{"content": "x"}, &invalid))
	assert.Equal(t, "INVALID_TOKEN", invalid.Code)
}

func TestPostVisibilityOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice")
	bob := ts.signup(t, "bob")

	public := ts.createPost(t, alice, "")
	private := ts.createPost(t, alice, "FRIENDS_ONLY")
	assert.Equal(t, "public", public.Visibility)
	assert.Equal(t, "friends_only", private.Visibility)

	var anon []postResponse
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/posts", "", nil, &anon))
	require.Len(t, anon, 1)
	assert.Equal(t, public.ID, anon[0].ID)

	// an invalid token on a read degrades to anonymous
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/posts", "garbage", nil, &anon))
	assert.Len(t, anon, 1)

	privatePath := fmt.Sprintf("/api/posts/%d", private.ID)
	var hidden errorBody
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, privatePath, bob.Token, nil, &hidden))
	assert.Equal(t, "NOT_FOUND", hidden.Code)
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, privatePath+"/comments", bob.Token, nil, nil))

	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, friendsPath("request", bob.ID, alice.ID), bob.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, privatePath, bob.Token, nil, nil), "pending is not enough")

	// accept and block only match the original direction
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodPost, friendsPath("accept", alice.ID, bob.ID), bob.Token, nil, nil))
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPost, friendsPath("accept", bob.ID, alice.ID), alice.Token, nil, nil))

	var got postResponse
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, privatePath, bob.Token, nil, &got))
	assert.Equal(t, private.ID, got.ID)

	var feed []postResponse
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/posts", bob.Token, nil, &feed))
	assert.Len(t, feed, 2)

	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPost, friendsPath("block", bob.ID, alice.ID), alice.Token, nil, nil))
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/posts", bob.Token, nil, &feed))
	assert.Empty(t, feed, "blocked viewers see nothing from the author")
}

func TestFriendshipEndpoints(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice")
	bob := ts.signup(t, "bob")
	carol := ts.signup(t, "carol")

	var forbidden errorBody
	assert.Equal(t, http.StatusForbidden, ts.call(t, http.MethodPost, friendsPath("request", alice.ID, bob.ID), carol.Token, nil, &forbidden))
	assert.Equal(t, "FORBIDDEN", forbidden.Code)

	assert.Equal(t, http.StatusBadRequest, ts.call(t, http.MethodPost, "/api/friendships/request?userId1=abc&userId2=2", alice.Token, nil, nil))
	assert.Equal(t, http.StatusBadRequest, ts.call(t, http.MethodPost, friendsPath("request", alice.ID, alice.ID), alice.Token, nil, nil))

	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, friendsPath("between", alice.ID, bob.ID), alice.Token, nil, nil))
	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, friendsPath("request", alice.ID, bob.ID), alice.Token, nil, nil))

	var between struct {
		UserID1 uint   `json:"user_id1"`
		UserID2 uint   `json:"user_id2"`
		Status  string `json:"status"`
	}
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, friendsPath("between", bob.ID, alice.ID), bob.Token, nil, &between))
	assert.Equal(t, alice.ID, between.UserID1)
	assert.Equal(t, "pending", between.Status)

	var list []map[string]interface{}
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/friendships", bob.Token, nil, &list))
	assert.Len(t, list, 1)
	assert.Equal(t, http.StatusForbidden, ts.call(t, http.MethodGet, fmt.Sprintf("/api/friendships?userId=%d", alice.ID), bob.Token, nil, nil))

	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/friendships?status=PENDING", bob.Token, nil, &list))
	assert.Len(t, list, 1)
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/friendships?status=accepted", bob.Token, nil, &list))
	assert.Empty(t, list)
	assert.Equal(t, http.StatusBadRequest, ts.call(t, http.MethodGet, "/api/friendships?status=rejected", bob.Token, nil, nil))

	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPost, friendsPath("reject", alice.ID, bob.ID), bob.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, friendsPath("between", alice.ID, bob.ID), alice.Token, nil, nil))
}

func TestFriendshipDirectionEnforced(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice")
	bob := ts.signup(t, "bob")
	private := ts.createPost(t, bob, "friends_only")
	privatePath := fmt.Sprintf("/api/posts/%d", private.ID)

	// a requester cannot accept their own request
	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, friendsPath("request", alice.ID, bob.ID), alice.Token, nil, nil))
	var forbidden errorBody
	assert.Equal(t, http.StatusForbidden, ts.call(t, http.MethodPost, friendsPath("accept", alice.ID, bob.ID), alice.Token, nil, &forbidden))
	assert.Equal(t, "FORBIDDEN", forbidden.Code)
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, privatePath, alice.Token, nil, nil))

	// nor can a request be sent on someone else's behalf
	assert.Equal(t, http.StatusForbidden, ts.call(t, http.MethodPost, friendsPath("request", bob.ID, alice.ID), alice.Token, nil, nil))
	assert.Equal(t, http.StatusForbidden, ts.call(t, http.MethodPost, friendsPath("request", alice.ID, bob.ID), bob.Token, nil, nil))

	var between struct {
		Status string `json:"status"`
	}
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, friendsPath("between", alice.ID, bob.ID), bob.Token, nil, &between))
	assert.Equal(t, "pending", between.Status)

	// the receiver's accept is what grants access
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPost, friendsPath("accept", alice.ID, bob.ID), bob.Token, nil, nil))
	assert.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, privatePath, alice.Token, nil, nil))
}

func TestPostOwnershipAndCascade(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice")
	bob := ts.signup(t, "bob")
	post := ts.createPost(t, alice, "public")
	postPath := fmt.Sprintf("/api/posts/%d", post.ID)

	var forbidden errorBody
	assert.Equal(t, http.StatusForbidden, ts.call(t, http.MethodPut, postPath, bob.Token, map[string]string{"content": "mine now"}, &forbidden))
	assert.Equal(t, "FORBIDDEN", forbidden.Code)
	assert.Equal(t, http.StatusForbidden, ts.call(t, http.MethodDelete, postPath, bob.Token, nil, nil))

	var comment struct {
		ID uint `json:"id"`
	}
	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, postPath+"/comments", bob.Token, map[string]string{"content": "nice"}, &comment))
	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, postPath+"/comments", alice.Token, map[string]interface{}{
		"content": "thanks", "parent_comment_id": comment.ID,
	}, nil))
	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, postPath+"/likes", bob.Token, nil, nil))
	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, fmt.Sprintf("/api/comments/%d/likes", comment.ID), alice.Token, nil, nil))

	var dup errorBody
	assert.Equal(t, http.StatusConflict, ts.call(t, http.MethodPost, postPath+"/likes", bob.Token, nil, &dup))
	assert.Equal(t, "DUPLICATE_LIKE", dup.Code)

	var counted postResponse
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, postPath, "", nil, &counted))
	assert.Equal(t, int64(2), counted.CommentCount)
	assert.Equal(t, int64(1), counted.LikeCount)

	var listed []struct {
		ID        uint  `json:"id"`
		LikeCount int64 `json:"like_count"`
	}
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, postPath+"/comments", "", nil, &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, int64(1), listed[0].LikeCount)
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, postPath+"/comments?replies=false", "", nil, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, comment.ID, listed[0].ID)

	var updated postResponse
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPut, postPath, alice.Token, map[string]string{"content": "edited"}, &updated))
	assert.Equal(t, "edited", updated.Content)

	require.Equal(t, http.StatusOK, ts.call(t, http.MethodDelete, postPath, alice.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, postPath, alice.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodPut, fmt.Sprintf("/api/comments/%d", comment.ID), bob.Token, map[string]string{"content": "x"}, nil))
}

func TestCommentAndLikeOwnership(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice")
	bob := ts.signup(t, "bob")
	post := ts.createPost(t, alice, "public")

	var comment struct {
		ID uint `json:"id"`
	}
	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), bob.Token, map[string]string{"content": "hi"}, &comment))
	commentPath := fmt.Sprintf("/api/comments/%d", comment.ID)

	assert.Equal(t, http.StatusForbidden, ts.call(t, http.MethodPut, commentPath, alice.Token, map[string]string{"content": "x"}, nil))
	assert.Equal(t, http.StatusForbidden, ts.call(t, http.MethodDelete, commentPath, alice.Token, nil, nil))
	assert.Equal(t, http.StatusOK, ts.call(t, http.MethodPut, commentPath, bob.Token, map[string]string{"content": "hello"}, nil))

	var like struct {
		ID uint `json:"id"`
	}
	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/likes", post.ID), bob.Token, nil, &like))
	likePath := fmt.Sprintf("/api/likes/%d", like.ID)
	assert.Equal(t, http.StatusForbidden, ts.call(t, http.MethodDelete, likePath, alice.Token, nil, nil))
	assert.Equal(t, http.StatusOK, ts.call(t, http.MethodDelete, likePath, bob.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodDelete, likePath, bob.Token, nil, nil))

	assert.Equal(t, http.StatusOK, ts.call(t, http.MethodDelete, commentPath, bob.Token, nil, nil))
}

func TestPostCreatedBroadcast(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub := ts.rdb.Subscribe(ctx, notifications.BroadcastChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)
	ch := sub.Channel()

	ts.createPost(t, alice, "friends_only")
	public := ts.createPost(t, alice, "public")

	select {
	case msg := <-ch:
		var evt struct {
			Type    string                 `json:"type"`
			Payload map[string]interface{} `json:"payload"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &evt))
		assert.Equal(t, EventPostCreated, evt.Type)
		assert.EqualValues(t, public.ID, evt.Payload["post_id"], "the friends-only post was never broadcast")
	case <-ctx.Done():
		t.Fatal("no broadcast received")
	}
}

func TestUserEndpoints(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signup(t, "alice")
	bob := ts.signup(t, "bob")

	var users []map[string]interface{}
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/users?limit=1", "", nil, &users))
	require.Len(t, users, 1)
	assert.NotContains(t, users[0], "email")

	var byName map[string]interface{}
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/users/username/bob", "", nil, &byName))
	assert.Equal(t, float64(bob.ID), byName["id"])
	assert.NotContains(t, byName, "email")

	var byID map[string]interface{}
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, fmt.Sprintf("/api/users/%d", bob.ID), alice.Token, nil, &byID))
	assert.NotContains(t, byID, "email")

	var me map[string]interface{}
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/users/me", bob.Token, nil, &me))
	assert.Equal(t, "bob@example.com", me["email"])

	alicePath := fmt.Sprintf("/api/users/%d", alice.ID)
	assert.Equal(t, http.StatusForbidden, ts.call(t, http.MethodPut, alicePath, bob.Token, map[string]string{"bio": "hacked"}, nil))

	var updated struct {
		Bio string `json:"bio"`
	}
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPut, alicePath, alice.Token, map[string]string{"bio": "hi there"}, &updated))
	assert.Equal(t, "hi there", updated.Bio)

	assert.Equal(t, http.StatusForbidden, ts.call(t, http.MethodDelete, alicePath, bob.Token, nil, nil))
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodDelete, alicePath, alice.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, alicePath, "", nil, nil))
}

func TestSignupRateLimited(t *testing.T) {
	ts := newTestServer(t)
	for i := 0; i < 5; i++ {
		ts.signup(t, fmt.Sprintf("user%d", i))
	}

	status := ts.call(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "user6", "email": "user6@example.com", "password": testPassword,
	}, nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.NotEmpty(t, ts.mr.Keys())
}

func TestLoginFailsClosedWithoutRateLimitStore(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	ts := newTestServerWithRedis(t, rdb)

	// signup stays open when the store is down
	ts.signup(t, "alice")

	var body struct {
		Error string `json:"error"`
	}
	status := ts.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": testPassword,
	}, &body)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "rate limit unavailable", body.Error)
}
