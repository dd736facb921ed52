package server

import (
	"time"

	"circle/internal/middleware"
	"circle/internal/models"
	"circle/internal/service"

	"github.com/gofiber/fiber/v2"
)

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignupInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.Signup(c.UserContext(), req)
	if err != nil {
		return respond(c, err)
	}

	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return respond(c, err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "user signed up", "user_id", user.ID)

	return c.Status(fiber.StatusCreated).JSON(authResponse{Token: token, ExpiresAt: expires, User: user})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Email == "" || req.Password == "" {
		return respond(c, models.NewValidationError("Email and password are required"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respond(c, err)
	}

	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(authResponse{Token: token, ExpiresAt: expires, User: user})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (s *Server) Logout(c *fiber.Ctx) error {
	token, err := middleware.BearerToken(c.Get("Authorization"))
	if err != nil {
		return respond(c, err)
	}
	if err := s.tokens.Revoke(c.UserContext(), token); err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}
