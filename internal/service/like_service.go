package service

import (
	"context"
	"time"

	"circle/internal/models"
	"circle/internal/repository"
)

// LikeService provides like business logic.
type LikeService struct {
	likeRepo    repository.LikeRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	now         func() time.Time
}

// NewLikeService returns a new LikeService.
func NewLikeService(likeRepo repository.LikeRepository, postRepo repository.PostRepository, commentRepo repository.CommentRepository) *LikeService {
	return &LikeService{
		likeRepo:    likeRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		now:         time.Now,
	}
}

// CreatePostLike fails with DUPLICATE_LIKE if userID already liked the post.
// The check and the insert are separate statements, so two concurrent
// requests can both succeed.
func (s *LikeService) CreatePostLike(ctx context.Context, userID, postID uint) (*models.Like, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	existing, err := s.likeRepo.FindByUserAndPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewDuplicateLikeError(models.LikeTargetPost, postID)
	}

	like := &models.Like{UserID: userID, PostID: &postID, CreatedAt: s.now()}
	if err := s.likeRepo.Create(ctx, like); err != nil {
		return nil, err
	}
	return like, nil
}

// CreateCommentLike fails with DUPLICATE_LIKE if userID already liked the comment.
func (s *LikeService) CreateCommentLike(ctx context.Context, userID, commentID uint) (*models.Like, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, err
	}

	existing, err := s.likeRepo.FindByUserAndComment(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewDuplicateLikeError(models.LikeTargetComment, commentID)
	}

	like := &models.Like{UserID: userID, CommentID: &commentID, CreatedAt: s.now()}
	if err := s.likeRepo.Create(ctx, like); err != nil {
		return nil, err
	}
	return like, nil
}

func (s *LikeService) CountLikesForPost(ctx context.Context, postID uint) (int64, error) {
	return s.likeRepo.CountByPost(ctx, postID)
}

func (s *LikeService) CountLikesForComment(ctx context.Context, commentID uint) (int64, error) {
	return s.likeRepo.CountByComment(ctx, commentID)
}

// DeleteLike fails with NOT_FOUND when id does not exist.
func (s *LikeService) DeleteLike(ctx context.Context, id uint) error {
	if _, err := s.likeRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.likeRepo.Delete(ctx, id)
}

// DeleteOwnLike is DeleteLike restricted to the user who created the like.
func (s *LikeService) DeleteOwnLike(ctx context.Context, id, actorID uint) error {
	like, err := s.likeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if like.UserID != actorID {
		return models.NewForbiddenError("You can only remove your own likes")
	}
	return s.likeRepo.Delete(ctx, id)
}

// DeletePostLikes removes every like placed directly on the post.
func (s *LikeService) DeletePostLikes(ctx context.Context, postID uint) (int64, error) {
	return s.likeRepo.DeleteByPost(ctx, postID)
}

// DeleteCommentLikes removes every like placed on the comment.
func (s *LikeService) DeleteCommentLikes(ctx context.Context, commentID uint) (int64, error) {
	return s.likeRepo.DeleteByComment(ctx, commentID)
}
