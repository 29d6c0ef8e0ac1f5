package router

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/walltribe/backend/internal/handlers"
	"github.com/anonto42/walltribe/backend/internal/lock"
	"github.com/anonto42/walltribe/backend/internal/middleware"
	"github.com/anonto42/walltribe/backend/internal/models"
	"github.com/anonto42/walltribe/backend/internal/repositories"
	"github.com/anonto42/walltribe/backend/internal/repositories/memory"
	"github.com/anonto42/walltribe/backend/internal/services"
	"github.com/anonto42/walltribe/backend/pkg/config"
	"github.com/anonto42/walltribe/backend/pkg/metrics"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Repositories is the storage the services are built on
type Repositories struct {
	Users       repositories.UserRepository
	Friendships repositories.FriendshipRepository
	Images      repositories.ImageRepository
	Reactions   repositories.ReactionRepository
	Comments    repositories.CommentRepository
	FriendCache repositories.FriendCache // nil disables caching
	Locker      lock.Locker
}

// NewDatabaseRepositories builds PostgreSQL and MongoDB repositories, plus the
// redis cell lock and friend cache when redis is configured
func NewDatabaseRepositories(db *config.DB, cfg *config.Config, logger *zap.Logger) Repositories {
	repos := Repositories{
		Users:       repositories.NewPostgresUserRepository(db.Postgres),
		Friendships: repositories.NewPostgresFriendshipRepository(db.Postgres),
		Images:      repositories.NewMongoImageRepository(db.Mongo),
		Reactions:   repositories.NewPostgresReactionRepository(db.Postgres),
		Comments:    repositories.NewPostgresCommentRepository(db.Postgres),
		Locker:      lock.NewKeyedMutex(),
	}
	if db.Redis != nil {
		repos.FriendCache = repositories.NewRedisFriendCache(db.Redis, cfg.Friends.CacheTTL)
		repos.Locker = lock.NewRedisLocker(db.Redis, cfg.Reactions.LockTTL, logger)
		logger.Info("Using redis cell lock and friend cache")
	}
	return repos
}

// NewMemoryRepositories builds in-memory repositories for tests and local runs
func NewMemoryRepositories() Repositories {
	return Repositories{
		Users:       memory.NewUserRepository(),
		Friendships: memory.NewFriendshipRepository(),
		Images:      memory.NewImageRepository(),
		Reactions:   memory.NewReactionRepository(),
		Comments:    memory.NewCommentRepository(),
		FriendCache: memory.NewFriendCache(),
		Locker:      lock.NewKeyedMutex(),
	}
}

// Migrate creates the PostgreSQL tables and MongoDB indexes
func Migrate(ctx context.Context, db *config.DB, logger *zap.Logger) error {
	err := db.Postgres.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.Like{},
		&models.Dislike{},
		&models.Favorite{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	logger.Info("PostgreSQL auto-migrations completed")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := repositories.NewMongoImageRepository(db.Mongo).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create image indexes: %w", err)
	}
	logger.Info("MongoDB indexes ensured")
	return nil
}

// Services groups the services behind the API
type Services struct {
	Identity      *services.IdentityService
	Relationships *services.RelationshipService
	Reactions     *services.ReactionService
	Feed          *services.FeedService
	Comments      *services.CommentService
	Images        *services.ImageService
}

// NewServices wires the services over repos
func NewServices(repos Repositories, reactionCfg services.ReactionConfig, logger *zap.Logger) *Services {
	identity := services.NewIdentityService(repos.Users, logger.Named("identity"))
	relationships := services.NewRelationshipService(identity, repos.Users, repos.Friendships, repos.FriendCache, logger.Named("relationships"))
	reactions := services.NewReactionService(repos.Images, repos.Reactions, repos.Locker, reactionCfg, logger.Named("reactions"))
	return &Services{
		Identity:      identity,
		Relationships: relationships,
		Reactions:     reactions,
		Feed:          services.NewFeedService(relationships, repos.Users, repos.Images, repos.Reactions, repos.Comments, reactions, logger.Named("feed")),
		Comments:      services.NewCommentService(repos.Comments, repos.Images, repos.Users, logger.Named("comments")),
		Images:        services.NewImageService(repos.Images, repos.Reactions, repos.Comments, logger.Named("images")),
	}
}

// SetupRoutes configures all application routes
func SetupRoutes(e *echo.Echo, svc *Services, verifier middleware.TokenVerifier, logger *zap.Logger) {
	e.GET("/health", handlers.HealthCheck)
	e.GET("/metrics", metrics.Handler())

	authenticate := middleware.Authenticate(verifier)

	// Registration needs a verified principal but no user record yet
	authGroup := e.Group("/api/v1/auth", authenticate)
	userHandler := handlers.NewUserHandler(svc.Identity)
	userHandler.RegisterAuthRoutes(authGroup)

	api := e.Group("/api/v1", authenticate, middleware.ResolveIdentity(svc.Identity))
	userHandler.RegisterProfileRoutes(api)

	handlers.NewFriendshipHandler(svc.Relationships).RegisterFriendshipRoutes(api)
	handlers.NewFeedHandler(svc.Feed).RegisterFeedRoutes(api)
	handlers.NewImageHandler(svc.Images).RegisterImageRoutes(api)
	handlers.NewReactionHandler(svc.Reactions).RegisterReactionRoutes(api)
	handlers.NewCommentHandler(svc.Comments).RegisterCommentRoutes(api)

	logger.Info("All routes configured", zap.Int("routes", len(e.Routes())))
}
