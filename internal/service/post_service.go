package service

import (
	"context"
	"time"

	"circle/internal/models"
	"circle/internal/repository"
	"circle/internal/validation"
)

// PostService provides post business logic: visibility filtering, ownership
// checks, comment and like counts, and cascade deletion.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	friends  FriendshipLookup
	comments *CommentService
	likes    *LikeService
	tx       Transactor
	now      func() time.Time
}

// NewPostService returns a new PostService. A nil tx runs the cascade without a transaction.
func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	friends FriendshipLookup,
	comments *CommentService,
	likes *LikeService,
	tx Transactor,
) *PostService {
	if tx == nil {
		tx = NonAtomic{}
	}
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		friends:  friends,
		comments: comments,
		likes:    likes,
		tx:       tx,
		now:      time.Now,
	}
}

// CreatePostInput holds the data needed to create a post.
// UserID comes from the authenticated identity, never from the request body.
type CreatePostInput struct {
	UserID     uint
	Content    string
	MediaURL   string
	Visibility string
}

// CreatePost validates and stores a new post authored by in.UserID.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validation.ValidatePostContent(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateMediaURL(in.MediaURL); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	visibility, err := models.ParseVisibility(in.Visibility)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:     in.UserID,
		Content:    in.Content,
		MediaURL:   in.MediaURL,
		Visibility: visibility,
		CreatedAt:  s.now(),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// GetVisiblePosts returns, in storage order, the posts viewerID may read
// with their comment and like counts. Viewer 0 sees public posts only.
func (s *PostService) GetVisiblePosts(ctx context.Context, viewerID uint) ([]models.Post, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	checker := newVisibilityChecker(s.friends, viewerID)
	visible := make([]models.Post, 0, len(posts))
	for i := range posts {
		ok, err := checker.check(ctx, &posts[i])
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := s.attachCounts(ctx, &posts[i]); err != nil {
			return nil, err
		}
		visible = append(visible, posts[i])
	}
	return visible, nil
}

// GetPostByID fails with NOT_FOUND both when the post does not exist and
// when viewerID may not read it.
func (s *PostService) GetPostByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := newVisibilityChecker(s.friends, viewerID).check(ctx, post)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}

	if err := s.attachCounts(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// GetPostComments lists a post's comments behind the same visibility gate as GetPostByID.
func (s *PostService) GetPostComments(ctx context.Context, postID, viewerID uint) ([]models.Comment, error) {
	if _, err := s.GetPostByID(ctx, postID, viewerID); err != nil {
		return nil, err
	}
	return s.comments.ListCommentsForPost(ctx, postID)
}

// GetAllPosts returns every post with counts, ignoring visibility.
// For administrative use only.
func (s *PostService) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if err := s.attachCounts(ctx, &posts[i]); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

// UpdatePostAuthenticated applies patch when actorID is the post's author.
func (s *PostService) UpdatePostAuthenticated(ctx context.Context, id, actorID uint, patch models.PostPatch) (*models.Post, error) {
	post, err := s.ownedPost(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	return s.applyPatch(ctx, post, patch)
}

// UpdatePost applies patch without an ownership check. For administrative use only.
func (s *PostService) UpdatePost(ctx context.Context, id uint, patch models.PostPatch) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyPatch(ctx, post, patch)
}

// DeletePostAuthenticated cascades the delete when actorID is the post's author.
func (s *PostService) DeletePostAuthenticated(ctx context.Context, id, actorID uint) error {
	if _, err := s.ownedPost(ctx, id, actorID); err != nil {
		return err
	}
	return s.deleteCascade(ctx, id)
}

// DeletePost cascades the delete without an ownership check. For administrative use only.
func (s *PostService) DeletePost(ctx context.Context, id uint) error {
	if _, err := s.postRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.deleteCascade(ctx, id)
}

// ownedPost checks, in order: the post exists, the actor exists, the actor wrote the post.
func (s *PostService) ownedPost(ctx context.Context, id, actorID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, actorID); err != nil {
		return nil, err
	}
	if post.UserID != actorID {
		return nil, models.NewForbiddenError("You can only modify your own posts")
	}
	return post, nil
}

func (s *PostService) applyPatch(ctx context.Context, post *models.Post, patch models.PostPatch) (*models.Post, error) {
	if patch.Content != nil {
		if err := validation.ValidatePostContent(*patch.Content); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		post.Content = *patch.Content
	}
	if patch.MediaURL != nil {
		if err := validation.ValidateMediaURL(*patch.MediaURL); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		post.MediaURL = *patch.MediaURL
	}

	now := s.now()
	post.UpdatedAt = &now
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	if err := s.attachCounts(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) attachCounts(ctx context.Context, post *models.Post) error {
	comments, err := s.comments.CountCommentsForPost(ctx, post.ID)
	if err != nil {
		return err
	}
	likes, err := s.likes.CountLikesForPost(ctx, post.ID)
	if err != nil {
		return err
	}
	post.CommentCount = comments
	post.LikeCount = likes
	return nil
}
