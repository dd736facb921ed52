package repository

import (
	"context"
	"testing"

	"circle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeRepository_Integration(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	postID, commentID := uint(10), uint(20)

	postLike := &models.Like{UserID: 1, PostID: &postID}
	require.NoError(t, repo.Create(ctx, postLike))
	require.NoError(t, repo.Create(ctx, &models.Like{UserID: 2, PostID: &postID}))
	require.NoError(t, repo.Create(ctx, &models.Like{UserID: 1, CommentID: &commentID}))

	t.Run("rejects likes without exactly one target", func(t *testing.T) {
		err := repo.Create(ctx, &models.Like{UserID: 3})
		assert.True(t, models.IsCode(err, models.CodeValidation))

		err = repo.Create(ctx, &models.Like{UserID: 3, PostID: &postID, CommentID: &commentID})
		assert.True(t, models.IsCode(err, models.CodeValidation))
	})

	t.Run("find by user and target", func(t *testing.T) {
		found, err := repo.FindByUserAndPost(ctx, 1, postID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, postLike.ID, found.ID)

		missing, err := repo.FindByUserAndPost(ctx, 3, postID)
		assert.NoError(t, err)
		assert.Nil(t, missing)

		onComment, err := repo.FindByUserAndComment(ctx, 1, commentID)
		require.NoError(t, err)
		assert.NotNil(t, onComment)
	})

	t.Run("counts", func(t *testing.T) {
		n, err := repo.CountByPost(ctx, postID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = repo.CountByComment(ctx, commentID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("bulk deletes", func(t *testing.T) {
		n, err := repo.DeleteByPost(ctx, postID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = repo.DeleteByComment(ctx, commentID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = repo.GetByID(ctx, postLike.ID)
		assert.True(t, models.IsCode(err, models.CodeNotFound))
	})
}
