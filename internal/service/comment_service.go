package service

import (
	"context"
	"time"

	"circle/internal/models"
	"circle/internal/repository"
	"circle/internal/validation"
)

// CommentService provides comment business logic.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	likes       *LikeService
	tx          Transactor
	now         func() time.Time
}

// NewCommentService returns a new CommentService.
func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	likes *LikeService,
	tx Transactor,
) *CommentService {
	if tx == nil {
		tx = NonAtomic{}
	}
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		likes:       likes,
		tx:          tx,
		now:         time.Now,
	}
}

// CreateCommentInput holds the data needed to create a comment.
type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

// CreateComment adds a top-level comment to an existing post.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	return s.create(ctx, in, nil)
}

// CreateNestedComment replies to parentID, which must exist on the same post.
func (s *CommentService) CreateNestedComment(ctx context.Context, in CreateCommentInput, parentID uint) (*models.Comment, error) {
	parent, err := s.commentRepo.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.PostID != in.PostID {
		return nil, models.NewValidationError("Parent comment belongs to a different post")
	}
	return s.create(ctx, in, &parent.ID)
}

func (s *CommentService) create(ctx context.Context, in CreateCommentInput, parentID *uint) (*models.Comment, error) {
	if err := validation.ValidateCommentContent(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:          in.PostID,
		UserID:          in.UserID,
		Content:         in.Content,
		ParentCommentID: parentID,
		CreatedAt:       s.now(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// GetComment fails with NOT_FOUND when id does not exist.
func (s *CommentService) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	return s.commentRepo.GetByID(ctx, id)
}

// ListCommentsForPost returns top-level comments and replies in creation order,
// each with its like count.
func (s *CommentService) ListCommentsForPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		n, err := s.likes.CountLikesForComment(ctx, comments[i].ID)
		if err != nil {
			return nil, err
		}
		comments[i].LikeCount = n
	}
	return comments, nil
}

// CountCommentsForPost counts top-level comments and replies alike.
func (s *CommentService) CountCommentsForPost(ctx context.Context, postID uint) (int64, error) {
	return s.commentRepo.CountByPost(ctx, postID)
}

// EditComment replaces the content of a comment owned by actorID.
func (s *CommentService) EditComment(ctx context.Context, id, actorID uint, content string) (*models.Comment, error) {
	comment, err := s.owned(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateCommentContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	now := s.now()
	comment.Content = content
	comment.UpdatedAt = &now
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment owned by actorID along with its likes.
// Replies to the comment are left in place.
func (s *CommentService) DeleteComment(ctx context.Context, id, actorID uint) error {
	if _, err := s.owned(ctx, id, actorID); err != nil {
		return err
	}
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.deleteWithLikes(ctx, id)
	})
}

// DeletePostComments removes every comment on the post, replies included,
// deleting each comment's likes before the comment itself.
func (s *CommentService) DeletePostComments(ctx context.Context, postID uint) (int, error) {
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return 0, err
	}
	for i := range comments {
		if err := s.deleteWithLikes(ctx, comments[i].ID); err != nil {
			return i, err
		}
	}
	return len(comments), nil
}

func (s *CommentService) deleteWithLikes(ctx context.Context, id uint) error {
	if _, err := s.likes.DeleteCommentLikes(ctx, id); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, id)
}

func (s *CommentService) owned(ctx context.Context, id, actorID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actorID {
		return nil, models.NewForbiddenError("You can only modify your own comments")
	}
	return comment, nil
}
