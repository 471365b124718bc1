package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crosslister/backend/internal/infrastructure/logger"
)

// RouteRegistrar is implemented by handlers that register their own routes
type RouteRegistrar interface {
	RegisterRoutes(group *gin.RouterGroup)
}

// Router wires the HTTP engine, middleware, and handler routes
type Router struct {
	engine     *gin.Engine
	logger     *zap.Logger
	registrars []RouteRegistrar
}

// New creates a router with the standard middleware chain
func New(log *zap.Logger) *Router {
	engine := gin.New()
	engine.Use(
		logger.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)

	return &Router{
		engine: engine,
		logger: log,
	}
}

// Register adds handlers whose routes are set up by Setup
func (r *Router) Register(registrars ...RouteRegistrar) {
	r.registrars = append(r.registrars, registrars...)
}

// Setup registers the health endpoint and all handler routes under /api/v1
func (r *Router) Setup() *gin.Engine {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api/v1")
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}

	return r.engine
}

// Engine returns the underlying gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
