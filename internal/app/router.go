package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"rideshare/internal/domain"
	"rideshare/internal/handler"
	"rideshare/internal/logger"
	"rideshare/internal/metrics"
	"rideshare/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
// RedisClient, NewRelicApp and Metrics are optional.
type RouterDeps struct {
	AuthHandler   *handler.AuthHandler
	RideHandler   *handler.RideHandler
	NotifyHandler *handler.NotifyHandler
	TokenParser   middleware.TokenParser
	RedisClient   *redis.Client
	NewRelicApp   *newrelic.Application
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORSMiddleware())
	router.Use(deps.Metrics.Middleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	router.NoRoute(func(c *gin.Context) {
		handler.AbortWithError(c, http.StatusNotFound, "route not found")
	})

	// API v1 routes.
	v1 := router.Group("/api/v1")
	{
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", deps.AuthHandler.Register)
			authRoutes.POST("/login", deps.AuthHandler.Login)
		}

		protected := v1.Group("")
		protected.Use(middleware.Auth(deps.TokenParser))
		protected.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

		rides := protected.Group("/rides")
		{
			rides.POST("", deps.RideHandler.CreateRide)
			rides.GET("/:rideId", deps.RideHandler.GetRide)
			rides.POST("/:rideId/complete", deps.RideHandler.CompleteRide)
		}

		protected.GET("/user/rides", deps.RideHandler.ListUserRides)

		driver := protected.Group("/driver")
		driver.Use(middleware.RequireRole(domain.RoleDriver))
		{
			driver.GET("/rides/requests", deps.RideHandler.ListPendingRides)
			driver.GET("/rides", deps.RideHandler.ListDriverRides)
			driver.POST("/rides/:rideId/accept", deps.RideHandler.AcceptRide)
		}

		if deps.NotifyHandler != nil {
			protected.GET("/ws", deps.NotifyHandler.Subscribe)
		}
	}

	return router
}
