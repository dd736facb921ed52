package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"circle/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type resolverStub struct {
	resolveFn func(ctx context.Context, token string) (uint, error)
}

func (s resolverStub) ResolveIdentity(ctx context.Context, token string) (uint, error) {
	return s.resolveFn(ctx, token)
}

func validOnly(valid string, userID uint) resolverStub {
	return resolverStub{resolveFn: func(_ context.Context, token string) (uint, error) {
		if token == valid {
			return userID, nil
		}
		return 0, models.NewInvalidTokenError(errors.New("signature is invalid"))
	}}
}

func TestAuthRequired(t *testing.T) {
	app := fiber.New()
	app.Get("/test", AuthRequired(validOnly("good", 123)), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": UserID(c)})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedCode   string
		expectedUserID uint
	}{
		{"Happy Path", "Bearer good", http.StatusOK, "", 123},
		{"Missing Header", "", http.StatusUnauthorized, "UNAUTHORIZED", 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "UNAUTHORIZED", 0},
		{"Empty Bearer", "Bearer ", http.StatusUnauthorized, "UNAUTHORIZED", 0},
		{"Invalid Token", "Bearer forged", http.StatusUnauthorized, "INVALID_TOKEN", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, body["code"])
			} else {
				assert.Equal(t, float64(tt.expectedUserID), body["userID"])
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/feed", OptionalAuth(validOnly("good", 7)), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"viewer": UserID(c)})
	})

	cases := map[string]float64{
		"":              0,
		"Bearer good":   7,
		"Bearer forged": 0,
		"Token good":    0,
	}

	for header, want := range cases {
		req := httptest.NewRequest("GET", "/feed", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, header)

		var body map[string]float64
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, want, body["viewer"], header)
	}
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	_, err = BearerToken("bearer abc")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
}

type MockIdentityResolver struct {
	mock.Mock
}

func (m *MockIdentityResolver) ResolveIdentity(ctx context.Context, token string) (uint, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(uint), args.Error(1)
}

func TestAuthRequired_ResolverOnlyCalledWithToken(t *testing.T) {
	resolver := new(MockIdentityResolver)
	resolver.On("ResolveIdentity", mock.Anything, "tok").Return(uint(9), nil).Once()

	app := fiber.New()
	app.Get("/me", AuthRequired(resolver), func(c *fiber.Ctx) error {
		uid, _ := c.UserContext().Value(UserIDKey).(uint)
		return c.JSON(fiber.Map{"local": UserID(c), "ctx": uid})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer tok")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(9), body["local"])
	assert.Equal(t, float64(9), body["ctx"])

	resolver.AssertExpectations(t)
}
