package server

import (
	"circle/internal/middleware"
	"circle/internal/models"
	"circle/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.GetVisiblePosts(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPostByID(c.UserContext(), id, middleware.UserID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// GetPostComments handles GET /api/posts/:id/comments. ?replies=false drops replies.
func (s *Server) GetPostComments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.postService.GetPostComments(c.UserContext(), id, middleware.UserID(c))
	if err != nil {
		return respond(c, err)
	}

	if c.QueryBool("replies", true) {
		return c.JSON(comments)
	}
	topLevel := make([]models.Comment, 0, len(comments))
	for i := range comments {
		if !comments[i].IsReply() {
			topLevel = append(topLevel, comments[i])
		}
	}
	return c.JSON(topLevel)
}

// CreatePost handles POST /api/posts. The author is always the caller.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Content    string `json:"content"`
		MediaURL   string `json:"media_url"`
		Visibility string `json:"visibility"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:     middleware.UserID(c),
		Content:    req.Content,
		MediaURL:   req.MediaURL,
		Visibility: req.Visibility,
	})
	if err != nil {
		return respond(c, err)
	}

	s.publishPostCreated(c.UserContext(), post)
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var patch models.PostPatch
	if err := parseBody(c, &patch); err != nil {
		return nil
	}

	post, err := s.postService.UpdatePostAuthenticated(c.UserContext(), id, middleware.UserID(c), patch)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id, removing its comments and likes too.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePostAuthenticated(c.UserContext(), id, middleware.UserID(c)); err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// LikePost handles POST /api/posts/:id/likes
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()
	viewer := middleware.UserID(c)

	if _, err := s.postService.GetPostByID(ctx, id, viewer); err != nil {
		return respond(c, err)
	}
	like, err := s.likeService.CreatePostLike(ctx, viewer, id)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(like)
}
