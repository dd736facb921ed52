// Command admin runs maintenance tasks that bypass API ownership checks.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"circle/internal/bootstrap"
	"circle/internal/config"
	"circle/internal/database"
	"circle/internal/middleware"
	"circle/internal/models"
	"circle/internal/notifications"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  admin create-db                         - Create the configured postgres database if missing")
	fmt.Println("  admin list-posts                        - List every post regardless of visibility")
	fmt.Println("  admin update-post <id> [-content] [-media] - Edit any post")
	fmt.Println("  admin delete-post <id>                  - Delete any post with its comments and likes")
	fmt.Println("  admin delete-like <id>                  - Remove a single like")
	fmt.Println("  admin watch                             - Print notification events as they are published")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	middleware.InitLogger(cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	command := os.Args[1]

	// the database may not exist yet, so this runs before connecting
	if command == "create-db" {
		createDatabase(ctx, cfg)
		return
	}

	rt, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close()

	switch command {
	case "list-posts":
		listPosts(ctx, rt)
	case "update-post":
		updatePost(ctx, rt, os.Args[2:])
	case "delete-post":
		deletePost(ctx, rt, os.Args[2:])
	case "delete-like":
		deleteLike(ctx, rt, os.Args[2:])
	case "watch":
		watch(rt)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func createDatabase(ctx context.Context, cfg *config.Config) {
	created, err := database.EnsureDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	if created {
		fmt.Printf("Database %q created\n", cfg.DBName)
		return
	}
	fmt.Printf("Database %q already exists\n", cfg.DBName)
}

func listPosts(ctx context.Context, rt *bootstrap.Runtime) {
	posts, err := rt.Posts.GetAllPosts(ctx)
	if err != nil {
		log.Fatalf("Failed to list posts: %v", err)
	}
	fmt.Printf("%-6s %-6s %-13s %-8s %-6s %s\n", "ID", "AUTHOR", "VISIBILITY", "COMMENTS", "LIKES", "CONTENT")
	for _, p := range posts {
		fmt.Printf("%-6d %-6d %-13s %-8d %-6d %s\n", p.ID, p.UserID, p.Visibility, p.CommentCount, p.LikeCount, preview(p.Content))
	}
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > 50 {
		return string(r[:47]) + "..."
	}
	return string(r)
}

func parseID(args []string, kind string) uint {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || id == 0 {
		log.Fatalf("Invalid %s ID %q", kind, args[0])
	}
	return uint(id)
}

func updatePost(ctx context.Context, rt *bootstrap.Runtime, args []string) {
	id := parseID(args, "post")

	fs := flag.NewFlagSet("update-post", flag.ExitOnError)
	content := fs.String("content", "", "New post content")
	media := fs.String("media", "", "New media URL")
	_ = fs.Parse(args[1:])

	var patch models.PostPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "content":
			patch.Content = content
		case "media":
			patch.MediaURL = media
		}
	})
	if patch.Content == nil && patch.MediaURL == nil {
		log.Fatal("Nothing to update: pass -content and/or -media")
	}

	post, err := rt.Posts.UpdatePost(ctx, id, patch)
	if err != nil {
		log.Fatalf("Failed to update post %d: %v", id, err)
	}
	fmt.Printf("Post %d updated at %s\n", post.ID, post.UpdatedAt)
}

func deletePost(ctx context.Context, rt *bootstrap.Runtime, args []string) {
	id := parseID(args, "post")
	if err := rt.Posts.DeletePost(ctx, id); err != nil {
		log.Fatalf("Failed to delete post %d: %v", id, err)
	}
	fmt.Printf("Post %d deleted\n", id)
}

func deleteLike(ctx context.Context, rt *bootstrap.Runtime, args []string) {
	id := parseID(args, "like")
	if err := rt.Likes.DeleteLike(ctx, id); err != nil {
		log.Fatalf("Failed to delete like %d: %v", id, err)
	}
	fmt.Printf("Like %d deleted\n", id)
}

func watch(rt *bootstrap.Runtime) {
	if rt.Redis == nil {
		log.Fatal("Redis is unavailable; nothing to watch")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := notifications.NewNotifier(rt.Redis)
	err := notifier.StartPatternSubscriber(ctx, func(channel, payload string) {
		var event struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal([]byte(payload), &event)
		fmt.Printf("%-28s %-26s %s\n", channel, event.Type, payload)
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	fmt.Println("Watching notifications, Ctrl+C to stop")
	<-ctx.Done()
}
