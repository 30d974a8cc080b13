package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portunus/internal/adapter/gin/handler"
	"portunus/internal/adapter/gin/middleware"
	grpcmiddleware "portunus/internal/adapter/grpc/middleware"
	"portunus/pkg/security"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Auth   *handler.AuthHandler
	Users  *handler.UserHandler
	Routes *handler.RouteHandler
	Health *handler.HealthHandler
}

// Options configures the cross-cutting middleware.
type Options struct {
	Tokens             *security.TokenManager
	Users              middleware.UserLookup
	RateLimiter        *grpcmiddleware.RateLimiter
	CORSAllowedOrigins []string
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(h Handlers, opts Options, log *zap.Logger) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(opts.CORSAllowedOrigins))
	router.Use(middleware.RateLimiter(opts.RateLimiter, log))

	router.GET("/health", h.Health.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		authenticated := v1.Group("", middleware.Auth(opts.Tokens, opts.Users))

		users := authenticated.Group("/users")
		{
			users.GET("/me", h.Users.Me)

			admin := users.Group("", middleware.AdminOnly())
			admin.POST("", h.Users.CreateUser)
			admin.GET("", h.Users.ListUsers)
			admin.GET("/:id", h.Users.GetUser)
			admin.PUT("/:id", h.Users.UpdateUser)
			admin.DELETE("/:id", h.Users.DeleteUser)
		}

		routes := authenticated.Group("/routes")
		{
			routes.POST("", h.Routes.CreateRoute)
			routes.GET("", h.Routes.ListRoutes)
			routes.GET("/:id", h.Routes.GetRoute)
			routes.PUT("/:id", h.Routes.UpdateRoute)
			routes.DELETE("/:id", h.Routes.DeleteRoute)
		}

		authenticated.GET("/resolve/:hostname", h.Routes.Resolve)
	}

	return router
}
