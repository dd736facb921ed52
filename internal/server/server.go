// Package server contains the HTTP handlers and route wiring for the API.
package server

import (
	"context"
	"fmt"
	"time"

	"circle/internal/bootstrap"
	"circle/internal/config"
	"circle/internal/database"
	"circle/internal/middleware"
	"circle/internal/notifications"
	"circle/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	notifier       *notifications.Notifier
	limiter        *middleware.RateLimiter

	tokens         *service.TokenService
	userService    *service.UserService
	friendService  *service.FriendService
	likeService    *service.LikeService
	commentService *service.CommentService
	postService    *service.PostService
}

// NewServer connects to the database and Redis and builds a Server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		return nil, err
	}
	return newServer(cfg, rt.DB, rt.Redis, rt.Services), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; revocation, rate limits and notifications are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	return newServer(cfg, db, redisClient, bootstrap.NewServices(cfg, db, redisClient)), nil
}

func newServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, svc *bootstrap.Services) *Server {
	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("circle-api"),
		notifier:       notifications.NewNotifier(redisClient),
		limiter:        middleware.NewRateLimiter(redisClient, redisClient != nil),
		tokens:         svc.Tokens,
		userService:    svc.Users,
		friendService:  svc.Friends,
		likeService:    svc.Likes,
		commentService: svc.Comments,
		postService:    svc.Posts,
	}
}

// App builds the fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "circle-api",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			return respond(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	authRequired := middleware.AuthRequired(s.tokens)
	optionalAuth := middleware.OptionalAuth(s.tokens)

	auth := api.Group("/auth")
	auth.Post("/signup", s.limiter.Handler("signup", 5, 10*time.Minute, middleware.FailOpen), s.Signup)
	auth.Post("/login", s.limiter.Handler("login", 10, 5*time.Minute, middleware.FailClosed), s.Login)
	auth.Post("/logout", authRequired, s.Logout)

	users := api.Group("/users")
	users.Get("/", s.GetUsers)
	users.Get("/me", authRequired, s.GetMyProfile)
	users.Get("/username/:username", s.GetUserByUsername)
	users.Get("/:id", s.GetUser)
	users.Put("/:id", authRequired, s.UpdateUser)
	users.Delete("/:id", authRequired, s.DeleteUser)

	// Reads accept an optional token; anonymous viewers see public posts only.
	posts := api.Group("/posts")
	posts.Get("/", optionalAuth, s.GetPosts)
	posts.Get("/:id/comments", optionalAuth, s.GetPostComments)
	posts.Get("/:id", optionalAuth, s.GetPost)
	posts.Post("/", authRequired, s.limiter.Handler("create_post", 30, time.Minute, middleware.FailOpen), s.CreatePost)
	posts.Post("/:id/comments", authRequired, s.CreateComment)
	posts.Post("/:id/likes", authRequired, s.LikePost)
	posts.Put("/:id", authRequired, s.UpdatePost)
	posts.Delete("/:id", authRequired, s.DeletePost)

	comments := api.Group("/comments", authRequired)
	comments.Post("/:id/likes", s.LikeComment)
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	likes := api.Group("/likes", authRequired)
	likes.Delete("/:id", s.DeleteLike)

	friendships := api.Group("/friendships", authRequired)
	friendships.Get("/", s.GetFriendships)
	friendships.Get("/between", s.GetFriendshipBetween)
	friendships.Post("/request", s.limiter.Handler("friend_request", 20, 5*time.Minute, middleware.FailOpen), s.SendFriendRequest)
	friendships.Post("/accept", s.AcceptFriendRequest)
	friendships.Post("/reject", s.RejectFriendRequest)
	friendships.Post("/block", s.BlockFriend)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional:
// a missing client degrades features but does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start listens on the configured port until Shutdown is called.
func (s *Server) Start() error {
	addr := ":" + s.config.Port
	middleware.Logger.Info("server starting", "addr", addr, "env", s.config.Env)
	return s.App().Listen(addr)
}

// Shutdown stops accepting requests, drains in-flight ones and closes Redis and the database.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Warn("redis close failed", "error", err)
		}
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return nil
}
