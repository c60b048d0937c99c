package setup

import (
	"context"

	"github.com/phishguard/phishguard/internal/database"
	"github.com/phishguard/phishguard/internal/redis"
	"github.com/phishguard/phishguard/internal/setup/config"
	"go.uber.org/zap"
)

// App bundles all core dependencies and services needed by the application.
// Each field represents a subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config  // Application configuration
	Logger       *zap.Logger     // Main application logger
	DB           database.Client // Database connection pool
	RedisManager *redis.Manager  // Redis connection manager
}

// InitializeApp bootstraps all application dependencies in the correct
// order, ensuring each component has its required dependencies available.
// Configuration errors, including missing detection rule lists, are
// reported here before the service accepts any messages.
func InitializeApp(ctx context.Context) (*App, error) {
	// Load app configuration
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logger, err := NewLogger(cfg.Common.Debug.LogLevel)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded configuration", zap.String("configDir", configDir))

	// Redis manager provides connection pools for the rate limiter
	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	// Initialize database with automatic migrations
	db, err := database.NewConnection(ctx, &cfg.Common.PostgreSQL, logger.Named("database"), true)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		RedisManager: redisManager,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse
// initialization order. Logs but does not fail on cleanup errors so every
// component gets a cleanup attempt.
func (a *App) Cleanup() {
	a.RedisManager.Close()

	if err := a.DB.Close(); err != nil {
		a.Logger.Error("Failed to close database", zap.Error(err))
	}

	_ = a.Logger.Sync()
}
