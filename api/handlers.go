// Package api exposes the bookmark library over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/gcbaptista/bookmark-engine/internal/jobs"
	"github.com/gcbaptista/bookmark-engine/services"
)

const maxRequestBodySize = 1 << 20

// metricsSource is implemented by job managers that track execution metrics.
type metricsSource interface {
	GetMetrics() jobs.JobMetricsData
}

// API holds dependencies for API handlers.
type API struct {
	library services.Library
	jobs    services.JobManager
	logger  logrus.FieldLogger
}

// NewAPI creates a new API handler structure. jobManager may be nil when
// background fetching is disabled.
func NewAPI(library services.Library, jobManager services.JobManager, logger logrus.FieldLogger) *API {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &API{
		library: library,
		jobs:    jobManager,
		logger:  logger.WithField("component", "api"),
	}
}

// SetupRoutes defines all the API routes for the bookmark library.
func SetupRoutes(router *gin.Engine, library services.Library, jobManager services.JobManager, logger logrus.FieldLogger) {
	apiHandler := NewAPI(library, jobManager, logger)

	router.Use(RequestIDMiddleware(), LoggerMiddleware(apiHandler.logger), CORSMiddleware(),
		RequestSizeLimitMiddleware(maxRequestBodySize))

	// Health check route
	router.GET("/health", apiHandler.HealthCheckHandler)

	bookmarkRoutes := router.Group("/bookmarks")
	{
		bookmarkRoutes.POST("", apiHandler.AddBookmarkHandler)                  // Create and organize a bookmark
		bookmarkRoutes.GET("", apiHandler.ListBookmarksHandler)                 // List bookmarks, optionally by folder
		bookmarkRoutes.GET("/:id", apiHandler.GetBookmarkHandler)               // Get a bookmark
		bookmarkRoutes.PUT("/:id", apiHandler.UpdateBookmarkHandler)            // Edit a bookmark without reclustering
		bookmarkRoutes.DELETE("/:id", apiHandler.DeleteBookmarkHandler)         // Delete a bookmark
		bookmarkRoutes.POST("/:id/metadata", apiHandler.RefreshMetadataHandler) // Refetch page metadata in the background
	}

	folderRoutes := router.Group("/folders")
	{
		folderRoutes.POST("", apiHandler.AddFolderHandler)
		folderRoutes.GET("", apiHandler.ListFoldersHandler)
		folderRoutes.PUT("/:id", apiHandler.UpdateFolderHandler)
		folderRoutes.DELETE("/:id", apiHandler.DeleteFolderHandler)
	}

	router.POST("/_search", apiHandler.SearchHandler)

	clusterRoutes := router.Group("/clusters")
	{
		clusterRoutes.GET("", apiHandler.ListClustersHandler)
		clusterRoutes.GET("/stats", apiHandler.ClusterStatsHandler)
		clusterRoutes.DELETE("", apiHandler.ResetClustersHandler)
	}

	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("", apiHandler.ListJobsHandler)              // List jobs, optionally by status
		jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler) // Get job performance metrics
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)         // Get job status by ID
	}
}

// HealthCheckHandler reports service liveness.
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "bookmark-engine",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
