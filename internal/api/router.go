package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coursehive/forumcore/internal/privileges"
	"github.com/coursehive/forumcore/internal/topics"
	"github.com/coursehive/forumcore/pkg/logging"
	"github.com/coursehive/forumcore/pkg/telemetry"
)

// Router sets up API routes
type Router struct {
	manager  *topics.Manager
	resolver *privileges.Resolver
	logger   *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(manager *topics.Manager, resolver *privileges.Resolver) *Router {
	return &Router{
		manager:  manager,
		resolver: resolver,
		logger:   logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(tracingMiddleware())

	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	v1 := engine.Group("/api/v1")

	// Topic lifecycle
	v1.POST("/topics/:tid/delete", r.deleteTopic)
	v1.POST("/topics/:tid/restore", r.restoreTopic)
	v1.POST("/topics/:tid/purge", r.purgeTopic)
	v1.POST("/topics/:tid/lock", r.lockTopic)
	v1.POST("/topics/:tid/unlock", r.unlockTopic)
	v1.POST("/topics/:tid/pin", r.pinTopic)
	v1.POST("/topics/:tid/unpin", r.unpinTopic)
	v1.PUT("/topics/:tid/pin-expiry", r.setPinExpiry)
	v1.PUT("/topics/:tid/pin-order", r.orderPinned)
	v1.POST("/topics/:tid/move", r.moveTopic)
	v1.POST("/topics/:tid/views", r.incrementViews)
	v1.GET("/topics/:tid/events", r.listEvents)

	// Privilege queries
	v1.GET("/topics/:tid/privileges", r.getPrivileges)
	v1.POST("/privileges/filter-tids", r.filterTids)
	v1.POST("/privileges/filter-uids", r.filterUids)

	// Post aggregation
	v1.POST("/posts", r.newPost)
	v1.POST("/posts/remove", r.removePost)
	v1.POST("/posts/:pid/backlinks", r.syncBacklinks)
	v1.GET("/posts/replies", r.postReplies)
}

// tracingMiddleware opens a span per request, named by route
func tracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Request.Method + " " + c.FullPath()
		ctx, span := telemetry.StartSpan(c.Request.Context(), name)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"service": "forumcore-api",
	})
}
