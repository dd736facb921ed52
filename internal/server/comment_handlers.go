package server

import (
	"circle/internal/middleware"
	"circle/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/posts/:id/comments. A parent_comment_id
// in the body makes it a reply.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content         string `json:"content"`
		ParentCommentID *uint  `json:"parent_comment_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx := c.UserContext()
	actor := middleware.UserID(c)
	// commenting requires seeing the post
	if _, err := s.postService.GetPostByID(ctx, postID, actor); err != nil {
		return respond(c, err)
	}

	in := service.CreateCommentInput{UserID: actor, PostID: postID, Content: req.Content}
	if req.ParentCommentID != nil {
		comment, err := s.commentService.CreateNestedComment(ctx, in, *req.ParentCommentID)
		if err != nil {
			return respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	}

	comment, err := s.commentService.CreateComment(ctx, in)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment handles PUT /api/comments/:id
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.EditComment(c.UserContext(), id, middleware.UserID(c), req.Content)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), id, middleware.UserID(c)); err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}

// LikeComment handles POST /api/comments/:id/likes
func (s *Server) LikeComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()
	actor := middleware.UserID(c)

	comment, err := s.commentService.GetComment(ctx, id)
	if err != nil {
		return respond(c, err)
	}
	if _, err := s.postService.GetPostByID(ctx, comment.PostID, actor); err != nil {
		return respond(c, err)
	}

	like, err := s.likeService.CreateCommentLike(ctx, actor, id)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(like)
}

// DeleteLike handles DELETE /api/likes/:id
func (s *Server) DeleteLike(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.likeService.DeleteOwnLike(c.UserContext(), id, middleware.UserID(c)); err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Like removed"})
}
