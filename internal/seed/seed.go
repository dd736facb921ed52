// Package seed fills a database with fake users, friendships, posts,
// comments and likes for development. Everything goes through the services,
// so seeded data obeys the same rules as API traffic.
package seed

import (
	"context"
	"fmt"
	"strings"

	"circle/internal/bootstrap"
	"circle/internal/middleware"
	"circle/internal/models"
	"circle/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account gets.
const DefaultPassword = "Circle-Seed-2024!"

// Options control the size of the generated data set.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
}

// DefaultOptions returns a small but fully connected data set.
func DefaultOptions() Options {
	return Options{Users: 20, PostsPerUser: 3, CommentsPerPost: 2}
}

// Report counts what a run created.
type Report struct {
	Users       int
	Friendships map[models.FriendshipStatus]int
	Posts       int
	Comments    int
	Likes       int
}

// Seeder drives the services with gofakeit data.
type Seeder struct {
	db    *gorm.DB
	svc   *bootstrap.Services
	faker *gofakeit.Faker
}

// NewSeeder returns a Seeder over the given services. db is only used by
// ClearAll. A fixed seed makes runs reproducible; 0 picks a random one.
func NewSeeder(db *gorm.DB, svc *bootstrap.Services, seed int64) *Seeder {
	return &Seeder{db: db, svc: svc, faker: gofakeit.New(seed)}
}

// ClearAll removes every row the seeder can create.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []interface{}{&models.Like{}, &models.Comment{}, &models.Post{}, &models.Friendship{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// Run creates users, then friendships in every state, then posts of both
// visibilities with nested comments and likes.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{Friendships: make(map[models.FriendshipStatus]int)}

	users, err := s.seedUsers(ctx, opts.Users)
	if err != nil {
		return report, err
	}
	report.Users = len(users)

	if err := s.seedFriendships(ctx, users, report); err != nil {
		return report, err
	}
	if err := s.seedContent(ctx, users, opts, report); err != nil {
		return report, err
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		"users", report.Users, "posts", report.Posts,
		"comments", report.Comments, "likes", report.Likes)
	return report, nil
}

func (s *Seeder) seedUsers(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		username := s.username(i)
		user, err := s.svc.Users.Signup(ctx, service.SignupInput{
			Username: username,
			Email:    strings.ToLower(username) + "@circle.test",
			Password: DefaultPassword,
			Name:     s.faker.Name(),
		})
		if err != nil {
			return users, fmt.Errorf("seed user %q: %w", username, err)
		}

		bio := s.faker.Sentence(8)
		if len(bio) > 200 {
			bio = bio[:200]
		}
		user, err = s.svc.Users.UpdateProfile(ctx, user.ID, user.ID, service.UpdateProfileInput{Bio: &bio})
		if err != nil {
			return users, fmt.Errorf("seed bio for %q: %w", username, err)
		}
		users = append(users, user)
	}
	return users, nil
}

// username builds a valid, unique handle from a fake one.
func (s *Seeder) username(i int) string {
	base := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, s.faker.Username())
	if len(base) > 20 {
		base = base[:20]
	}
	if len(base) < 3 {
		base = "user"
	}
	return fmt.Sprintf("%s_%d", base, i)
}

// seedFriendships links each user to the next few, cycling through statuses
// so every state is represented.
func (s *Seeder) seedFriendships(ctx context.Context, users []*models.User, report *Report) error {
	statuses := []models.FriendshipStatus{
		models.FriendshipStatusAccepted,
		models.FriendshipStatusPending,
		models.FriendshipStatusAccepted,
		models.FriendshipStatusBlocked,
	}

	k := 0
	for i := range users {
		for step := 1; step <= 2 && i+step < len(users); step++ {
			from, to := users[i].ID, users[i+step].ID
			status := statuses[k%len(statuses)]
			k++

			if _, err := s.svc.Friends.SendRequest(ctx, from, to); err != nil {
				return err
			}
			var err error
			switch status {
			case models.FriendshipStatusAccepted:
				_, err = s.svc.Friends.AcceptRequest(ctx, from, to)
			case models.FriendshipStatusBlocked:
				_, err = s.svc.Friends.BlockFriend(ctx, from, to)
			}
			if err != nil {
				return err
			}
			report.Friendships[status]++
		}
	}
	return nil
}

func (s *Seeder) seedContent(ctx context.Context, users []*models.User, opts Options, report *Report) error {
	if len(users) == 0 {
		return nil
	}
	for _, author := range users {
		for p := 0; p < opts.PostsPerUser; p++ {
			visibility := models.VisibilityPublic
			if s.faker.Number(1, 3) == 1 {
				visibility = models.VisibilityFriendsOnly
			}
			in := service.CreatePostInput{
				UserID:     author.ID,
				Content:    s.faker.Paragraph(1, 3, 12, " "),
				Visibility: string(visibility),
			}
			if s.faker.Bool() {
				in.MediaURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", s.faker.UUID())
			}

			post, err := s.svc.Posts.CreatePost(ctx, in)
			if err != nil {
				return fmt.Errorf("seed post: %w", err)
			}
			report.Posts++

			if err := s.seedThread(ctx, users, post, opts.CommentsPerPost, report); err != nil {
				return err
			}
		}
	}
	return nil
}

// seedThread adds top-level comments, one reply to the first comment, and likes.
func (s *Seeder) seedThread(ctx context.Context, users []*models.User, post *models.Post, n int, report *Report) error {
	var first *models.Comment
	for c := 0; c < n; c++ {
		commenter := users[s.faker.Number(0, len(users)-1)]
		comment, err := s.svc.Comments.CreateComment(ctx, service.CreateCommentInput{
			UserID:  commenter.ID,
			PostID:  post.ID,
			Content: s.faker.Sentence(10),
		})
		if err != nil {
			return fmt.Errorf("seed comment: %w", err)
		}
		report.Comments++
		if first == nil {
			first = comment
		}
	}

	if first != nil {
		if _, err := s.svc.Comments.CreateNestedComment(ctx, service.CreateCommentInput{
			UserID:  post.UserID,
			PostID:  post.ID,
			Content: s.faker.Sentence(6),
		}, first.ID); err != nil {
			return fmt.Errorf("seed reply: %w", err)
		}
		report.Comments++

		if _, err := s.svc.Likes.CreateCommentLike(ctx, post.UserID, first.ID); err != nil {
			return fmt.Errorf("seed comment like: %w", err)
		}
		report.Likes++
	}

	// distinct likers, so no duplicate-like errors
	likers := s.faker.Number(0, len(users)-1)
	for i := 0; i < likers && i < 3; i++ {
		if _, err := s.svc.Likes.CreatePostLike(ctx, users[i].ID, post.ID); err != nil {
			return fmt.Errorf("seed post like: %w", err)
		}
		report.Likes++
	}
	return nil
}
