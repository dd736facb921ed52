// Command seed fills the configured database with fake data.
package main

import (
	"context"
	"flag"
	"log"

	"circle/internal/bootstrap"
	"circle/internal/config"
	"circle/internal/middleware"
	"circle/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.Users, "Number of users to create")
	postsPerUser := flag.Int("posts", defaults.PostsPerUser, "Posts per user")
	commentsPerPost := flag.Int("comments", defaults.CommentsPerPost, "Top-level comments per post")
	randomSeed := flag.Int64("seed", 0, "Random seed (0 = random)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.InitLogger(cfg.Env, cfg.LogLevel)

	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	rt, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close()

	ctx := context.Background()
	s := seed.NewSeeder(rt.DB, rt.Services, *randomSeed)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	report, err := s.Run(ctx, seed.Options{
		Users:           *numUsers,
		PostsPerUser:    *postsPerUser,
		CommentsPerPost: *commentsPerPost,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d comments, %d likes, friendships %v",
		report.Users, report.Posts, report.Comments, report.Likes, report.Friendships)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
