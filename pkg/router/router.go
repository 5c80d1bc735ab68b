package router

import (
	"context"
	"fmt"

	convapi "counseling-platform/backend/conversation/api"
	"counseling-platform/backend/conversation/ws"
	counselorapi "counseling-platform/backend/counselor/api"
	matchingapi "counseling-platform/backend/matching/api"
	"counseling-platform/backend/pkg/config"
	"counseling-platform/backend/pkg/di"
	"counseling-platform/backend/pkg/errors"
	"counseling-platform/backend/pkg/logger"
	"counseling-platform/backend/pkg/middleware"
	"counseling-platform/backend/pkg/validator"
	userapi "counseling-platform/backend/user/api"

	"github.com/gin-gonic/gin"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config

	hubCancel        context.CancelFunc
	routesRegistered bool
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)

	cfg := config.Get()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Logger middleware first so every request is captured
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	rateLimiter := middleware.NewRateLimiter(container.Logger)
	engine.Use(rateLimiter.Middleware())

	hubCtx, hubCancel := context.WithCancel(context.Background())
	go container.Hub.Run(hubCtx)

	container.Health.Start()

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
		hubCancel: hubCancel,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.routesRegistered = true
	r.Engine.Use(corsMiddleware())

	userHandler := userapi.NewUserHandler(r.Container.UserService, r.Container.JWTService)
	counselorHandler := counselorapi.NewCounselorHandler(r.Container.Directory)
	matchingHandler := matchingapi.NewMatchingHandler(r.Container.MatchingService)
	conversationHandler := convapi.NewConversationHandler(r.Container.MessageService, r.Container.MessageRouter)

	r.Engine.GET("/health", r.Container.Health.Handler())

	v1 := r.Engine.Group("/api/v1")

	// Public routes
	userHandler.RegisterRoutes(v1)
	counselorHandler.RegisterRoutes(v1)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.JWTAuthMiddleware(r.Container.JWTService, r.Logger))
	{
		matchingHandler.RegisterRoutes(protected)
		conversationHandler.RegisterRoutes(protected)
	}

	// WebSocket route; authentication happens inside the upgrade
	r.Engine.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(r.Container.Hub, r.Container.JWTService, c)
	})
}

// AddOpenAPIValidation installs request validation against the given
// schema on all API routes. Gin captures each route's handler chain at
// registration time, so this must run before SetupRoutes; calling it
// later is an error rather than a silent no-op.
func (r *Router) AddOpenAPIValidation(schemaPath string) error {
	if r.routesRegistered {
		return fmt.Errorf("openapi validation must be installed before routes are registered")
	}
	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		return err
	}
	r.Engine.Use(v.Middleware())
	return nil
}

// Shutdown stops the websocket hub subscription
func (r *Router) Shutdown() {
	r.hubCancel()
}

// corsMiddleware allows cross-origin API and websocket traffic
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
