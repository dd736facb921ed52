// Package bootstrap wires the database, Redis and the service graph for the
// server and the command-line tools.
package bootstrap

import (
	"fmt"
	"time"

	"circle/internal/cache"
	"circle/internal/config"
	"circle/internal/database"
	"circle/internal/middleware"
	"circle/internal/repository"
	"circle/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the fully wired service graph.
type Services struct {
	Tokens   *service.TokenService
	Users    *service.UserService
	Friends  *service.FriendService
	Likes    *service.LikeService
	Comments *service.CommentService
	Posts    *service.PostService
}

// NewServices builds every service over db. rdb may be nil.
// Post and comment deletion run in a DB transaction when cfg.CascadeTransactional is set.
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Services {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	friendRepo := repository.NewFriendRepository(db)

	var tx service.Transactor = service.NonAtomic{}
	if cfg.CascadeTransactional {
		tx = repository.NewTransactor(db)
	}

	s := &Services{
		Tokens:  service.NewTokenService(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour, rdb),
		Users:   service.NewUserService(userRepo),
		Friends: service.NewFriendService(friendRepo),
		Likes:   service.NewLikeService(likeRepo, postRepo, commentRepo),
	}
	s.Comments = service.NewCommentService(commentRepo, postRepo, s.Likes, tx)
	s.Posts = service.NewPostService(postRepo, userRepo, s.Friends, s.Comments, s.Likes, tx)
	return s
}

// Runtime holds the live connections and the services built on them.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	*Services
}

// InitRuntime connects to the database and Redis and wires the services.
// An unreachable Redis is tolerated; caching, revocation and notifications are then off.
func InitRuntime(cfg *config.Config) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := cache.InitRedis(cfg.RedisURL)
	if rdb == nil {
		middleware.Logger.Warn("running without redis", "addr", cfg.RedisURL)
	}

	return &Runtime{DB: db, Redis: rdb, Services: NewServices(cfg, db, rdb)}, nil
}

// Close releases the Redis client and the database pool.
func (r *Runtime) Close() {
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
	if sqlDB, err := r.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
