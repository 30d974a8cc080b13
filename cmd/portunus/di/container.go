package di

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	"gorm.io/gorm"

	"portunus/cmd/portunus/infrastructure"
	"portunus/internal/adapter/cache"
	"portunus/internal/adapter/db/postgres"
	ginhandler "portunus/internal/adapter/gin/handler"
	"portunus/internal/adapter/gin/router"
	grpcadapter "portunus/internal/adapter/grpc"
	"portunus/internal/adapter/grpc/middleware"
	"portunus/internal/adapter/repository/cached"
	"portunus/internal/config"
	"portunus/internal/usecase/route"
	"portunus/internal/usecase/user"
	redisclient "portunus/pkg/redis"
	"portunus/pkg/security"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	DB            *gorm.DB
	RedisClient   *redisclient.Client
	UserRepo      *cached.UserRepository
	UserUC        user.Usecase
	RouteUC       route.Usecase
	Tokens        *security.TokenManager
	RateLimiter   *middleware.RateLimiter
	HealthServer  *health.Server
	HealthChecker *grpcadapter.HealthChecker
	Handlers      router.Handlers
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Initialize database
	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if cfg.DB.AutoMigrate {
		if err := infrastructure.CreateAll(ctx, db); err != nil {
			_ = infrastructure.CloseDatabase(db)
			return nil, err
		}
	}

	// Initialize Redis client, nil when disabled
	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	// Initialize cache layer. Interfaces stay nil without Redis so the
	// cached repositories and the limiter fall through to the database.
	var (
		userCache  cache.UserCache
		routeCache cache.RouteCache
		scripter   goredis.Scripter
	)
	if rdb != nil {
		ttl := time.Duration(cfg.Redis.CacheTTL) * time.Second
		userCache = cache.NewRedisUserCache(rdb.Client, ttl, l)
		routeCache = cache.NewRedisRouteCache(rdb.Client, ttl, l)
		scripter = rdb.Client
	}

	// Initialize repositories
	routeRepo := cached.NewRouteRepository(postgres.NewRouteRepoPG(db, l), routeCache, l)
	userRepo := cached.NewUserRepository(postgres.NewUserRepoPG(db, l), userCache, l).WithRoutes(routeRepo)

	// Initialize use cases
	userUC := user.New(userRepo, l)
	routeUC := route.New(routeRepo, l)

	tokens := security.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.JWTTTLMinutes)*time.Minute)

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(
		scripter,
		middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstCapacity:     cfg.RateLimit.BurstCapacity,
			Enabled:           cfg.RateLimit.Enabled,
		},
		l,
	)

	// Health probes shared by GET /health and grpc.health.v1
	healthServer := health.NewServer()
	healthChecker := grpcadapter.NewHealthChecker(healthServer, l)
	healthChecker.Register("db", func(ctx context.Context) error {
		return infrastructure.PingDatabase(ctx, db)
	})
	if rdb != nil {
		healthChecker.Register("redis", rdb.Ping)
	}

	// Initialize Gin handlers
	handlers := router.Handlers{
		Auth:   ginhandler.NewAuthHandler(userUC, tokens, l),
		Users:  ginhandler.NewUserHandler(userUC, l),
		Routes: ginhandler.NewRouteHandler(routeUC, l),
		Health: ginhandler.NewHealthHandler(healthChecker, cfg.Logger.ServiceName, cfg.Logger.ServiceVersion),
	}

	return &Container{
		Config:        cfg,
		Logger:        l,
		DB:            db,
		RedisClient:   rdb,
		UserRepo:      userRepo,
		UserUC:        userUC,
		RouteUC:       routeUC,
		Tokens:        tokens,
		RateLimiter:   rateLimiter,
		HealthServer:  healthServer,
		HealthChecker: healthChecker,
		Handlers:      handlers,
	}, nil
}

// RouterOptions returns the middleware settings for the HTTP router.
func (c *Container) RouterOptions() router.Options {
	return router.Options{
		Tokens:             c.Tokens,
		Users:              c.UserRepo,
		RateLimiter:        c.RateLimiter,
		CORSAllowedOrigins: c.Config.App.CORSAllowedOrigins,
	}
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
		c.RedisClient = nil
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		c.DB = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
