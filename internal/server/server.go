// Package server contains the HTTP handlers of the forum API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"kasinoforum/internal/cache"
	"kasinoforum/internal/config"
	"kasinoforum/internal/featureflags"
	"kasinoforum/internal/middleware"
	"kasinoforum/internal/models"
	"kasinoforum/internal/observability"
	"kasinoforum/internal/repository"
	"kasinoforum/internal/service"

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
	featureFlags   *featureflags.Manager
	resolver       *middleware.CallerResolver

	categoryService *service.CategoryService
	threadService   *service.ThreadService
	postService     *service.PostService
	likeService     *service.LikeService
	reportService   *service.ReportService
	userService     *service.UserService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; the forum then runs without cache and per-caller rate limits.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("server requires a database")
	}

	opts := []repository.Option{repository.WithQueryTimeout(cfg.QueryTimeout())}
	userRepo := repository.NewUserRepository(db, opts...)
	categoryRepo := repository.NewCategoryRepository(db, opts...)
	threadRepo := repository.NewThreadRepository(db, opts...)
	postRepo := repository.NewPostRepository(db, opts...)
	likeRepo := repository.NewLikeRepository(db, opts...)
	reportRepo := repository.NewReportRepository(db, opts...)

	store := cache.NewStore(redisClient)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("kasinoforum-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		resolver:       middleware.NewCallerResolver(cfg, userRepo),

		categoryService: service.NewCategoryService(categoryRepo, store),
		threadService:   service.NewThreadService(threadRepo, postRepo, store),
		postService:     service.NewPostService(postRepo, threadRepo, store),
		likeService:     service.NewLikeService(likeRepo, store),
		reportService:   service.NewReportService(reportRepo),
		userService:     service.NewUserService(userRepo, store),
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	// CORS must run before middlewares that can short-circuit (auth, limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
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

	app.Use(middleware.StructuredLogger())
	app.Use(s.resolver.Handler())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api/forum")

	// Public routes
	api.Get("/categories", s.ListCategories)
	api.Get("/categories/:slug", s.GetCategory)
	api.Get("/threads", s.ListThreads)
	api.Get("/threads/:id/posts", s.ListPosts)
	api.Get("/threads/:slug", s.GetThread)
	api.Get("/users/:id", s.GetUserProfile)

	protected := api.Group("", middleware.AuthRequired)

	categories := protected.Group("/categories")
	categories.Post("/", s.CreateCategory)
	categories.Patch("/:id", s.UpdateCategory)
	categories.Delete("/:id", s.DeleteCategory)

	threads := protected.Group("/threads")
	threads.Post("/", s.CreateThread)
	threads.Post("/:id/lock", s.LockThread)
	threads.Post("/:id/pin", s.PinThread)
	threads.Post("/:id/accept", s.AcceptAnswer)
	threads.Post("/:id/posts", s.CreatePost)
	threads.Patch("/:id", s.UpdateThread)
	threads.Delete("/:id", s.DeleteThread)

	posts := protected.Group("/posts")
	posts.Post("/:id/like", s.ToggleLike)
	posts.Post("/:id/reports", middleware.RateLimit(s.redis, middleware.RateLimitConfig{
		Resource: "report",
		Limit:    s.config.ReportRateLimit,
		Window:   s.config.ReportRateWindow(),
		Policy:   middleware.FailOpen,
		Skip: func(c *fiber.Ctx) bool {
			return !s.featureFlags.Enabled(featureflags.ReportRateLimit, callerID(c))
		},
	}), s.FileReport)
	posts.Patch("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	reports := protected.Group("/reports", middleware.StaffRequired)
	reports.Get("/", s.ListReports)
	reports.Get("/:id", s.GetReport)
	reports.Post("/:id/resolve", s.ResolveReport)

	users := protected.Group("/users")
	users.Patch("/:id/role", s.SetUserRole)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: without
// it the forum serves uncached and the check reports it as unavailable.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
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
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Kasinoforum API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	observability.GlobalLogger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	observability.GlobalLogger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.GlobalLogger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.GlobalLogger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.GlobalLogger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	observability.GlobalLogger.Info("Server shutdown complete")
	return nil
}
