package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"circle/internal/cache"
	"circle/internal/config"
	"circle/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testPassword = "Correct-Horse-42"

type testServer struct {
	srv *Server
	app *fiber.App
	mr  *miniredis.Miniredis
	rdb *redis.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ts := newTestServerWithRedis(t, rdb)
	ts.mr = mr
	return ts
}

// newTestServerWithRedis builds a server around rdb, which may point nowhere.
func newTestServerWithRedis(t *testing.T, rdb *redis.Client) *testServer {
	t.Helper()
	cache.SetClient(nil)
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Port:                 "0",
		Env:                  "test",
		JWTSecret:            "test-secret-test-secret-test-secret",
		JWTTTLHours:          1,
		CascadeTransactional: true,
	}
	srv, err := NewServerWithDeps(cfg, testutil.NewSQLiteDB(t), rdb)
	require.NoError(t, err)

	return &testServer{srv: srv, app: srv.App(), rdb: rdb}
}

// call sends a JSON request and decodes the JSON response into out when out is non-nil.
func (ts *testServer) call(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type account struct {
	ID    uint
	Token string
}

func (ts *testServer) signup(t *testing.T, username string) account {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	status := ts.call(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": testPassword,
	}, &resp)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, resp.Token)
	return account{ID: resp.User.ID, Token: resp.Token}
}

type postResponse struct {
	ID           uint   `json:"id"`
	UserID       uint   `json:"user_id"`
	Content      string `json:"content"`
	Visibility   string `json:"visibility"`
	CommentCount int64  `json:"comment_count"`
	LikeCount    int64  `json:"like_count"`
}

func (ts *testServer) createPost(t *testing.T, author account, visibility string) postResponse {
	t.Helper()
	var p postResponse
	status := ts.call(t, http.MethodPost, "/api/posts", author.Token, map[string]string{
		"content":    "hello from " + fmt.Sprint(author.ID),
		"visibility": visibility,
	}, &p)
	require.Equal(t, http.StatusCreated, status)
	return p
}

func friendsPath(action string, a, b uint) string {
	return fmt.Sprintf("/api/friendships/%s?userId1=%d&userId2=%d", action, a, b)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
