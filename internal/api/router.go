// Package api wires the HTTP surface over the prepare, launch and extract
// pipelines.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"switchwrapper/internal/api/handlers"
	"switchwrapper/internal/api/middleware"
)

type RouterOptions struct {
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(logger *zap.Logger, pipeline *handlers.PipelineHandler, opts RouterOptions) *gin.Engine {
	router := gin.New()

	router.Use(middleware.CORS(opts.AllowedOrigins...))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.ErrorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/prepare", pipeline.Prepare)
		api.POST("/launch", pipeline.Launch)
		api.POST("/extract", pipeline.Extract)

		api.GET("/results/:id", pipeline.GetResult)
		api.DELETE("/results/:id", pipeline.DeleteResult)
		api.GET("/results/:id/periods/:period/grid", pipeline.GetGrid)
		api.GET("/results/:id/periods/:period/tables/:table", pipeline.GetTable)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
