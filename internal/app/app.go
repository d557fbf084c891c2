package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/internal/config"
	"github.com/temcen/placerank/internal/database"
	"github.com/temcen/placerank/internal/handlers"
	"github.com/temcen/placerank/internal/middleware"
	"github.com/temcen/placerank/internal/services"
	"github.com/temcen/placerank/internal/validation"
)

type App struct {
	config     *config.Config
	logger     *logrus.Logger
	db         *database.Database
	services   *services.Services
	handlers   *handlers.Handlers
	validation *middleware.ValidationMiddleware
	router     *gin.Engine
	stop       context.CancelFunc
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	// Initialize database connections
	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	// Initialize services
	services, err := services.New(cfg, app.logger, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = services

	schemas, err := validation.NewDefaultSchemaValidator()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load request schemas: %w", err)
	}
	app.validation = middleware.NewValidationMiddleware(schemas)

	app.handlers = handlers.New(app.logger, services)

	// Background health and pool metrics
	ctx, cancel := context.WithCancel(context.Background())
	app.stop = cancel
	services.Health.Start(ctx)

	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Logger() *logrus.Logger {
	return a.logger
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if a.stop != nil {
		a.stop()
	}

	if err := a.services.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing services")
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	a.router = newRouter(a.logger, a.handlers, a.validation, a.services.Auth, a.services.RateLimit, &a.config.Security.CORS)
}

func newRouter(
	logger *logrus.Logger,
	h *handlers.Handlers,
	vm *middleware.ValidationMiddleware,
	auth middleware.Authenticator,
	limiter middleware.RateLimiter,
	cors *config.CORSConfig,
) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cors))

	// Health and metrics endpoints (no auth required)
	router.GET("/health", h.Health.Check)
	router.GET("/metrics", handlers.Metrics())

	api := router.Group("/api/v1")
	{
		api.Use(middleware.Auth(auth, logger))
		api.Use(middleware.RateLimit(limiter, logger))

		api.GET("/rankings/:userId", vm.ValidateRankingQuery(), h.Ranking.Get)
		api.POST("/feedback", vm.ValidateFeedback(), h.Feedback.Record)

		users := api.Group("/users")
		{
			users.GET("/:userId/weights", h.Weights.Get)
			users.GET("/:userId/profile", h.User.GetProfile)
			users.PUT("/:userId/profile", vm.ValidateUserProfile(), h.User.UpdateProfile)
			users.GET("/:userId/behavior", h.Behavior.GetProfile)
		}

		api.POST("/visits", vm.ValidateVisit(), h.Behavior.RecordVisit)
		api.POST("/searches", vm.ValidateSearch(), h.Behavior.RecordSearch)
	}

	return router
}
