package service

import (
	"context"

	"circle/internal/middleware"
	"circle/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// deleteCascade removes a post and everything that hangs off it, in this order:
//
//  1. the post row
//  2. each comment's likes, then the comment (replies included)
//  3. likes placed directly on the post
//
// The steps run inside s.tx. With a transactional Transactor either all of
// them are applied or none; with NonAtomic a failure leaves earlier steps applied.
func (s *PostService) deleteCascade(ctx context.Context, postID uint) error {
	span, ctx := observability.NewSpan(ctx, "post.cascade_delete",
		attribute.Int64("post.id", int64(postID)))
	defer span.End()

	var comments int
	var likes int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.postRepo.Delete(ctx, postID); err != nil {
			return err
		}

		var err error
		if comments, err = s.comments.DeletePostComments(ctx, postID); err != nil {
			return err
		}
		if likes, err = s.likes.DeletePostLikes(ctx, postID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
		observability.CascadeDeletes.WithLabelValues("failure").Inc()
		middleware.Logger.ErrorContext(ctx, "post cascade delete failed",
			"post_id", postID, "error", err)
		return err
	}

	span.AddAttributes(
		attribute.Int("cascade.comments", comments),
		attribute.Int64("cascade.post_likes", likes),
	)
	observability.CascadeDeletes.WithLabelValues("success").Inc()
	middleware.Logger.InfoContext(ctx, "post deleted",
		"post_id", postID, "comments_removed", comments, "post_likes_removed", likes)
	return nil
}
