package repository

import (
	"context"
	"errors"

	"circle/internal/models"

	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	Create(ctx context.Context, like *models.Like) error
	GetByID(ctx context.Context, id uint) (*models.Like, error)
	// FindByUserAndPost returns nil, nil when the user has not liked the post.
	FindByUserAndPost(ctx context.Context, userID, postID uint) (*models.Like, error)
	// FindByUserAndComment returns nil, nil when the user has not liked the comment.
	FindByUserAndComment(ctx context.Context, userID, commentID uint) (*models.Like, error)
	CountByPost(ctx context.Context, postID uint) (int64, error)
	CountByComment(ctx context.Context, commentID uint) (int64, error)
	Delete(ctx context.Context, id uint) error
	DeleteByPost(ctx context.Context, postID uint) (int64, error)
	DeleteByComment(ctx context.Context, commentID uint) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Create(ctx context.Context, like *models.Like) error {
	if err := conn(ctx, r.db).Create(like).Error; err != nil {
		if models.IsCode(err, models.CodeValidation) {
			return err
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *likeRepository) GetByID(ctx context.Context, id uint) (*models.Like, error) {
	var like models.Like
	if err := conn(ctx, r.db).First(&like, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Like", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &like, nil
}

func (r *likeRepository) FindByUserAndPost(ctx context.Context, userID, postID uint) (*models.Like, error) {
	return r.findOne(ctx, "user_id = ? AND post_id = ?", userID, postID)
}

func (r *likeRepository) FindByUserAndComment(ctx context.Context, userID, commentID uint) (*models.Like, error) {
	return r.findOne(ctx, "user_id = ? AND comment_id = ?", userID, commentID)
}

func (r *likeRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Like, error) {
	var like models.Like
	if err := conn(ctx, r.db).Where(query, args...).First(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &like, nil
}

func (r *likeRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	return r.count(ctx, "post_id = ?", postID)
}

func (r *likeRepository) CountByComment(ctx context.Context, commentID uint) (int64, error) {
	return r.count(ctx, "comment_id = ?", commentID)
}

func (r *likeRepository) count(ctx context.Context, query string, id uint) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.Like{}).Where(query, id).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *likeRepository) Delete(ctx context.Context, id uint) error {
	if err := conn(ctx, r.db).Delete(&models.Like{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *likeRepository) DeleteByPost(ctx context.Context, postID uint) (int64, error) {
	res := conn(ctx, r.db).Where("post_id = ?", postID).Delete(&models.Like{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *likeRepository) DeleteByComment(ctx context.Context, commentID uint) (int64, error) {
	res := conn(ctx, r.db).Where("comment_id = ?", commentID).Delete(&models.Like{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
